package inventoryrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/rabbitmq"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

var (
	// ErrTimeout is returned when no matching reply arrives within the
	// configured deadline.
	ErrTimeout = errors.New("inventory check timed out")

	// ErrBrokerUnavailable is returned on connection-level broker failures.
	ErrBrokerUnavailable = errors.New("message broker unavailable")
)

// Client performs synchronous stock checks over the message broker. Each
// client owns a private exclusive reply queue; replies are matched to calls
// by correlation token. A client supports one outstanding call at a time.
// A call that hits a dead channel rebuilds it, redialing the shared
// connection when needed, so the client survives broker restarts.
type Client struct {
	client     *rabbitmq.Client
	channel    *amqp.Channel
	replyQueue amqp.Queue
	deliveries <-chan amqp.Delivery
	timeout    time.Duration

	mu sync.Mutex
}

// NewClient opens a dedicated channel on the shared connection and declares
// the client's reply queue.
func NewClient(client *rabbitmq.Client) (*Client, error) {
	timeoutSeconds := viper.GetInt("rabbitmq.rpc.timeout_seconds")
	if timeoutSeconds == 0 {
		timeoutSeconds = 10
	}

	c := &Client{
		client:  client,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
	if err := c.setup(); err != nil {
		return nil, err
	}

	return c, nil
}

// setup opens a channel on the shared connection and declares a fresh reply
// queue. The caller must hold the mutex except during construction.
func (c *Client) setup() error {
	channel, err := c.client.Connection().Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	// Server-named, exclusive, auto-deleted with the channel.
	replyQueue, err := channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare reply queue: %w", err)
	}

	deliveries, err := channel.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume reply queue: %w", err)
	}

	c.channel = channel
	c.replyQueue = replyQueue
	c.deliveries = deliveries

	return nil
}

// reset drops the dead channel, redialing the shared connection when it is
// closed, and declares a fresh reply queue.
func (c *Client) reset() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}

	conn := c.client.Connection()
	if conn == nil || conn.IsClosed() {
		if err := c.client.Redial(); err != nil {
			return err
		}
	}

	return c.setup()
}

// Close closes the client's channel, dropping its reply queue.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.channel.Close()
}

// Call publishes a stock check request and blocks until the matching reply
// arrives or the deadline elapses. On timeout the correlation token is
// abandoned; a late reply is dropped by the next call's loop.
func (c *Client) Call(ctx context.Context, items []messages.Item) (*messages.StockCheckResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	corrID := uuid.NewString()

	body, err := messages.Encode(messages.StockCheckRequest{Items: items})
	if err != nil {
		return nil, err
	}

	msg := amqp.Publishing{
		ContentType:   messages.ContentTypeJSON,
		CorrelationId: corrID,
		ReplyTo:       c.replyQueue.Name,
		Body:          body,
	}
	rabbitmq.InjectTrace(ctx, &msg)

	err = c.channel.Publish("", messages.InventoryCheckQueue, false, false, msg)
	if err != nil && rabbitmq.IsClosedErr(err) {
		slog.Warn("Inventory RPC channel lost, rebuilding", "error", err)
		if resetErr := c.reset(); resetErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, resetErr)
		}

		msg.ReplyTo = c.replyQueue.Name
		err = c.channel.Publish("", messages.InventoryCheckQueue, false, false, msg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return awaitReply(ctx, c.deliveries, corrID)
}

// awaitReply waits for the delivery carrying the given correlation token.
// Deliveries with a different token are orphaned replies of abandoned calls
// and are discarded.
func awaitReply(
	ctx context.Context,
	deliveries <-chan amqp.Delivery,
	corrID string,
) (*messages.StockCheckResponse, error) {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}

			return nil, ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil, ErrBrokerUnavailable
			}
			if msg.CorrelationId != corrID {
				continue
			}

			var resp messages.StockCheckResponse
			if err := messages.Decode(msg.Body, &resp); err != nil {
				return nil, err
			}

			return &resp, nil
		}
	}
}
