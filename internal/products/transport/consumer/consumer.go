package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iinboxrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/inbox"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/rabbitmq"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// service represents the service layer interface.
type service interface {
	ReserveStock(ctx context.Context, token string, items []messages.Item) (*messages.StockCheckResponse, error)
	ApplyOrderCreated(ctx context.Context, event messages.OrderCreatedEvent) error
}

// Consumer drives both broker-facing roles of the service: answering stock
// check requests on their reply queues and applying order created events.
type Consumer struct {
	client       *rabbitmq.Client
	service      service
	inboxRepo    iinboxrepo.IInboxRepository
	checkQueue   amqp.Queue
	orderQueue   amqp.Queue
	requeueDelay time.Duration
	stop         chan struct{}
	done         chan struct{}
}

// NewConsumer declares both queues and creates a Consumer. Declaring can
// fail when the broker drops right after the dial; the reconnect loop
// handles the error and retries with backoff.
func NewConsumer(client *rabbitmq.Client, service service, inboxRepo iinboxrepo.IInboxRepository) (*Consumer, error) {
	checkQueue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name: messages.InventoryCheckQueue,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", messages.InventoryCheckQueue, err)
	}

	orderQueue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    messages.OrderCreatedQueue,
		Durable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", messages.OrderCreatedQueue, err)
	}

	return &Consumer{
		client:       client,
		service:      service,
		inboxRepo:    inboxRepo,
		checkQueue:   checkQueue,
		orderQueue:   orderQueue,
		requeueDelay: time.Second,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Run starts consuming from both queues and blocks until shutdown or until
// the broker closes the delivery channels.
func (c *Consumer) Run(ctx context.Context) error {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "products-svc"
	}

	checkMsgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.checkQueue.Name,
		Consumer: consumerTag + "-check",
	})
	if err != nil {
		return err
	}

	orderMsgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.orderQueue.Name,
		Consumer: consumerTag + "-orders",
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started",
		"check_queue", c.checkQueue.Name,
		"order_queue", c.orderQueue.Name,
		"consumer_tag", consumerTag,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(50)

	go func() {
		for {
			select {
			case <-c.stop:
				slog.Info("Stopping consumer")
				close(c.done)

				return
			case msg, ok := <-checkMsgs:
				if !ok {
					slog.Info("Stock check channel closed")
					close(c.done)

					return
				}

				g.Go(func() error {
					return c.processStockCheck(gctx, msg)
				})
			case msg, ok := <-orderMsgs:
				if !ok {
					slog.Info("Order created channel closed")
					close(c.done)

					return
				}

				g.Go(func() error {
					return c.processOrderCreated(gctx, msg)
				})
			}
		}
	}()

	<-c.done
	if err := g.Wait(); err != nil {
		slog.Error("Error processing messages", "error", err)
	}

	return nil
}

// processStockCheck evaluates a stock check request and publishes the
// verdict to the requester's reply queue with its correlation token.
func (c *Consumer) processStockCheck(ctx context.Context, msg amqp.Delivery) error {
	ctx = rabbitmq.ExtractTrace(ctx, msg)
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processStockCheck")
	defer span.End()

	var req messages.StockCheckRequest
	if err := messages.Decode(msg.Body, &req); err != nil {
		slog.Error("Failed to unmarshal stock check request", "error", err)
		if err := msg.Nack(false, false); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return err
	}

	resp, err := c.service.ReserveStock(ctx, msg.CorrelationId, req.Items)
	if err != nil {
		slog.Error("Failed to evaluate stock check", "error", err)
		// Wait before requeueing so a dead database does not turn into a hot
		// redeliver loop; the requester's deadline still covers a retry.
		select {
		case <-ctx.Done():
		case <-time.After(c.requeueDelay):
		}
		if err := msg.Nack(false, true); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return err
	}

	body, err := messages.Encode(resp)
	if err != nil {
		return err
	}

	reply := amqp.Publishing{
		ContentType:   messages.ContentTypeJSON,
		CorrelationId: msg.CorrelationId,
		Body:          body,
	}
	rabbitmq.InjectTrace(ctx, &reply)

	if err := c.client.Publish(rabbitmq.PublishConfig{
		RoutingKey: msg.ReplyTo,
	}, reply); err != nil {
		slog.Error("Failed to publish stock check reply", "error", err, "reply_to", msg.ReplyTo)
		if err := msg.Nack(false, true); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return err
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)

		return err
	}

	slog.Info("Stock check answered", "status", resp.Status, "correlation_id", msg.CorrelationId)

	return nil
}

// processOrderCreated applies an order created event to inventory. A
// processing failure parks the message in the inbox and acks the delivery,
// so the inbox worker owns the retries.
func (c *Consumer) processOrderCreated(ctx context.Context, msg amqp.Delivery) error {
	ctx = rabbitmq.ExtractTrace(ctx, msg)
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processOrderCreated")
	defer span.End()

	var event messages.OrderCreatedEvent
	if err := messages.Decode(msg.Body, &event); err != nil {
		slog.Error("Failed to unmarshal order created event", "error", err)
		if err := msg.Nack(false, false); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return err
	}

	if err := c.service.ApplyOrderCreated(ctx, event); err != nil {
		slog.Error("Failed to apply order created event", "error", err, "order_id", event.OrderID)

		now := time.Now()
		inboxMsg := inbox.InboxMessage{
			MessageID:   strconv.FormatInt(event.OrderID, 10),
			QueueName:   c.orderQueue.Name,
			RoutingKey:  msg.RoutingKey,
			Payload:     msg.Body,
			ContentType: msg.ContentType,
			MaxRetries:  5,
			LastError:   err.Error(),
			CreatedAt:   now,
			UpdatedAt:   now,
			NextRetryAt: now,
		}
		if insertErr := c.inboxRepo.Insert(ctx, inboxMsg); insertErr != nil {
			slog.Error("Failed to park message in inbox", "error", insertErr, "order_id", event.OrderID)
			// Could not hand off to the inbox, let the broker redeliver
			if err := msg.Nack(false, true); err != nil {
				slog.Error("Failed to nack message", "error", err)
			}

			return insertErr
		}

		if err := msg.Ack(false); err != nil {
			slog.Error("Failed to ack message", "error", err)

			return err
		}

		return nil
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)

		return err
	}

	slog.Info("Order created event applied", "order_id", event.OrderID)

	return nil
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
