// Package events carries order events between the API and the ledger worker
// over RabbitMQ.
package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderQueue       = "orders"
	DeadLetterX      = "orders.dlx"
	DeadLetterQueue  = "orders.dlq"
	OrderCreatedType = "order.created"
)

// Declarer is the part of *amqp.Channel needed to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
}

// SetupTopology declares the order queue with its dead-letter exchange and
// queue, and limits the channel to one unacked delivery.
func SetupTopology(ch Declarer) error {
	if err := ch.ExchangeDeclare(DeadLetterX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, OrderQueue, DeadLetterX, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterX,
		"x-dead-letter-routing-key": OrderQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}
