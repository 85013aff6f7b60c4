package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Client represents a RabbitMQ client. streadway connections never recover
// on their own after a broker restart, so the client supports redialing:
// Publish retries once over a fresh connection when the current one is dead.
type Client struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Channel returns the current AMQP channel.
func (r *Client) Channel() *amqp.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel
}

// Connection returns the current AMQP connection.
func (r *Client) Connection() *amqp.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.conn
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// Dial connects to RabbitMQ using the service config.
func Dial() (*Client, error) {
	client := &Client{}
	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes the connection and channel. The caller must hold the
// mutex except during construction.
func (r *Client) connect() error {
	host := viper.GetString("rabbitmq.host")
	port := viper.GetInt("rabbitmq.port")
	user := viper.GetString("rabbitmq.user")
	password := viper.GetString("rabbitmq.password")

	if host == "" {
		host = "rabbitmq"
	}
	if port == 0 {
		port = 5672
	}

	connStr := fmt.Sprintf(
		"amqp://%s:%s@%s:%d/",
		user,
		password,
		host,
		port,
	)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return fmt.Errorf("failed to close a connection: %w", closeErr)
		}

		return fmt.Errorf("failed to open a channel: %w", err)
	}

	slog.Info("RabbitMQ connected", "host", host, "port", port)

	r.conn = conn
	r.channel = channel

	return nil
}

// Redial drops the current connection and establishes a fresh one.
func (r *Client) Redial() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}

	return r.connect()
}

// MustNewClient creates a new RabbitMQ client.
func MustNewClient() *Client {
	client, err := Dial()
	if err != nil {
		panic(err.Error())
	}

	return client
}

// IsClosedErr reports whether err means the channel or connection behind it
// is no longer usable and a redial is required.
func IsClosedErr(err error) bool {
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		switch amqpErr.Code {
		case amqp.ChannelError, amqp.ConnectionForced, amqp.FrameError:
			return true
		}
	}

	return false
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}

type ConsumeConfig struct {
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      amqp.Table
}

// Consume starts consuming messages from the queue.
func (r *Client) Consume(cfg ConsumeConfig) (<-chan amqp.Delivery, error) {
	return r.Channel().Consume(
		cfg.Queue,
		cfg.Consumer,
		cfg.AutoAck,
		cfg.Exclusive,
		cfg.NoLocal,
		cfg.NoWait,
		cfg.Args,
	)
}

type PublishConfig struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

// Publish publishes a message with the given configuration. A publish that
// failed because the broker connection died is retried once over a fresh
// connection, so event publishes and outbox drains survive broker restarts.
func (r *Client) Publish(cfg PublishConfig, msg amqp.Publishing) error {
	err := r.publish(cfg, msg)
	if err == nil || !IsClosedErr(err) {
		return err
	}

	slog.Warn("RabbitMQ connection lost, redialing", "error", err)
	if redialErr := r.Redial(); redialErr != nil {
		return err
	}

	return r.publish(cfg, msg)
}

func (r *Client) publish(cfg PublishConfig, msg amqp.Publishing) error {
	channel := r.Channel()
	if channel == nil {
		return amqp.ErrClosed
	}

	return channel.Publish(
		cfg.Exchange,
		cfg.RoutingKey,
		cfg.Mandatory,
		cfg.Immediate,
		msg,
	)
}
