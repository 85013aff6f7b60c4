package rabbitmq

import (
	"context"

	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts amqp.Table to the otel TextMapCarrier interface so
// trace context rides along in message headers.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	if value, ok := c[key].(string); ok {
		return value
	}

	return ""
}

func (c headerCarrier) Set(key string, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}

	return keys
}

// InjectTrace writes the trace context from ctx into the message headers.
func InjectTrace(ctx context.Context, msg *amqp.Publishing) {
	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}

	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(msg.Headers))
}

// ExtractTrace returns ctx extended with the trace context carried in the
// delivery headers.
func ExtractTrace(ctx context.Context, msg amqp.Delivery) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(msg.Headers))
}
