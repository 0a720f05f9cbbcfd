package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/carcraze/marketplace-api/internal/config"
	"github.com/carcraze/marketplace-api/internal/metrics"
	"github.com/carcraze/marketplace-api/internal/model"
)

const breakerName = "order-events"

// ErrBrokerUnavailable is returned while the breaker rejects publishes.
var ErrBrokerUnavailable = errors.New("event broker unavailable")

type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends order events through a circuit breaker so a broker outage
// fails fast instead of stalling checkouts.
type Publisher struct {
	ch      Channel
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewPublisher(ch Channel, cfg config.BreakerConfig, m *metrics.Metrics, log *slog.Logger) *Publisher {
	p := &Publisher{ch: ch, metrics: m, log: log}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.metrics.SetBreakerState(name, stateValue(to))
			p.log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	m.SetBreakerState(breakerName, metrics.BreakerClosed)
	return p
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.ch.PublishWithContext(ctx, "", OrderQueue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.OrderID.String(),
			Type:         OrderCreatedType,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("publish order created: %w", err)
	}
	return nil
}

func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
