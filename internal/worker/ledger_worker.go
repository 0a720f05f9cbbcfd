package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/carcraze/marketplace-api/internal/events"
	"github.com/carcraze/marketplace-api/internal/metrics"
	"github.com/carcraze/marketplace-api/internal/model"
)

const idempotencyTTL = 24 * time.Hour

// Consumer is the part of *amqp.Channel the worker reads from.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// IdempotencyStore remembers processed orders. *redis.Client satisfies it.
type IdempotencyStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Recorder writes the ledger lines of one order.
type Recorder interface {
	RecordOrder(ctx context.Context, orderID uuid.UUID) (int, error)
}

// LedgerWorker consumes order.created events and records seller transactions.
type LedgerWorker struct {
	channel  Consumer
	recorder Recorder
	store    IdempotencyStore
	metrics  *metrics.Metrics
	log      *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
}

func NewLedgerWorker(ch Consumer, recorder Recorder, store IdempotencyStore, m *metrics.Metrics, log *slog.Logger) *LedgerWorker {
	return &LedgerWorker{
		channel:  ch,
		recorder: recorder,
		store:    store,
		metrics:  m,
		log:      log,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (w *LedgerWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(events.OrderQueue, "ledger-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		defer close(w.stopped)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("ledger worker started", "queue", events.OrderQueue)
	return nil
}

// Stop signals the consume loop and waits for the in-flight message.
func (w *LedgerWorker) Stop() {
	close(w.done)
	<-w.stopped
}

func processedKey(orderID uuid.UUID) string {
	return "ledger_processed:" + orderID.String()
}

func (w *LedgerWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil || orderMsg.OrderID == uuid.Nil {
		w.log.Error("malformed order message", "error", err, "message_id", msg.MessageId)
		w.metrics.IncLedger("malformed")
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)
	key := processedKey(orderMsg.OrderID)

	exists, err := w.store.Exists(ctx, key).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		w.metrics.IncLedger("requeued")
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order already recorded, skipping")
		w.metrics.IncLedger("duplicate")
		_ = msg.Ack(false)
		return
	}

	inserted, err := w.recorder.RecordOrder(ctx, orderMsg.OrderID)
	if err != nil {
		log.Error("record order failed", "error", err)
		w.metrics.IncLedger("failed")
		_ = msg.Nack(false, false)
		return
	}

	if err := w.store.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	w.metrics.IncLedger("recorded")
	log.Info("order recorded in ledger", "transactions", inserted)
}
