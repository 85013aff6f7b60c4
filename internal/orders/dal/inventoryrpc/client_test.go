package inventoryrpc

import (
	"context"
	"testing"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitReply_ReturnsMatchingReply(t *testing.T) {
	t.Parallel()

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{
		CorrelationId: "corr-1",
		Body:          []byte(`{"status":"success","reservation_id":"res-1"}`),
	}

	resp, err := awaitReply(context.Background(), deliveries, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, messages.StatusSuccess, resp.Status)
	assert.Equal(t, "res-1", resp.ReservationID)
}

func TestAwaitReply_DiscardsStaleCorrelationTokens(t *testing.T) {
	t.Parallel()

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{
		CorrelationId: "stale",
		Body:          []byte(`{"status":"success"}`),
	}
	deliveries <- amqp.Delivery{
		CorrelationId: "corr-2",
		Body:          []byte(`{"status":"fail","details":{"101":"Not enough stock for Laptop Pro"}}`),
	}

	resp, err := awaitReply(context.Background(), deliveries, "corr-2")
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Not enough stock for Laptop Pro", resp.Details["101"])
}

func TestAwaitReply_TimesOutWithoutReply(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	resp, err := awaitReply(ctx, make(chan amqp.Delivery), "corr-3")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitReply_ClosedChannelMeansBrokerGone(t *testing.T) {
	t.Parallel()

	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	resp, err := awaitReply(context.Background(), deliveries, "corr-4")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
}

func TestAwaitReply_MalformedReplyBody(t *testing.T) {
	t.Parallel()

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{
		CorrelationId: "corr-5",
		Body:          []byte("not json"),
	}

	resp, err := awaitReply(context.Background(), deliveries, "corr-5")
	assert.Nil(t, resp)
	assert.Error(t, err)
}
