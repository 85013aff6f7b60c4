package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/ioutboxrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/outbox"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Publisher emits order created events. A failed publish is parked in the
// outbox table for the outbox worker to retry, so the event survives broker
// outages without failing the caller's request.
type Publisher struct {
	client     *rabbitmq.Client
	outboxRepo ioutboxrepo.IOutboxRepository
	queue      amqp.Queue
	maxRetries int
}

// NewPublisher declares the order_created queue and creates a publisher.
func NewPublisher(client *rabbitmq.Client, outboxRepo ioutboxrepo.IOutboxRepository) *Publisher {
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       messages.OrderCreatedQueue,
		Durable:    true,
		AutoDelete: false,
		Exclusive:  false,
		NoWait:     false,
	})
	if err != nil {
		panic(err)
	}

	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	return &Publisher{
		client:     client,
		outboxRepo: outboxRepo,
		queue:      queue,
		maxRetries: maxRetries,
	}
}

// PublishOrderCreated publishes the event, falling back to the outbox on
// failure.
func (p *Publisher) PublishOrderCreated(ctx context.Context, event messages.OrderCreatedEvent) error {
	body, err := messages.Encode(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType: messages.ContentTypeJSON,
		Body:        body,
	}
	rabbitmq.InjectTrace(ctx, &msg)

	err = p.client.Publish(rabbitmq.PublishConfig{
		Exchange:   "",
		RoutingKey: p.queue.Name,
	}, msg)
	if err == nil {
		return nil
	}

	slog.Warn("Failed to publish order created event, parking in outbox",
		"order_id", event.OrderID,
		"error", err,
	)

	now := time.Now()

	return p.outboxRepo.Insert(ctx, outbox.OutboxMessage{
		QueueName:   p.queue.Name,
		RoutingKey:  p.queue.Name,
		Payload:     body,
		ContentType: messages.ContentTypeJSON,
		MaxRetries:  p.maxRetries,
		LastError:   err.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}
