package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/inbox"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked = true

	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue

	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue

	return nil
}

type fakeService struct {
	reserveErr error
	applyErr   error
	tokens     []string
}

func (f *fakeService) ReserveStock(_ context.Context, token string, _ []messages.Item) (*messages.StockCheckResponse, error) {
	f.tokens = append(f.tokens, token)
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}

	return &messages.StockCheckResponse{Status: messages.StatusSuccess}, nil
}

func (f *fakeService) ApplyOrderCreated(_ context.Context, _ messages.OrderCreatedEvent) error {
	return f.applyErr
}

type fakeInboxRepo struct {
	inserted  []inbox.InboxMessage
	insertErr error
}

func (f *fakeInboxRepo) Insert(_ context.Context, msg inbox.InboxMessage) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, msg)

	return nil
}

func (f *fakeInboxRepo) GetPendingMessages(_ context.Context, _ int) ([]inbox.InboxMessage, error) {
	return nil, nil
}

func (f *fakeInboxRepo) Delete(_ context.Context, _ int64) error {
	return nil
}

func (f *fakeInboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

func encodeRequest(t *testing.T, req messages.StockCheckRequest) []byte {
	t.Helper()

	body, err := messages.Encode(req)
	require.NoError(t, err)

	return body
}

func TestProcessStockCheck_EvaluationFailureDelaysRequeue(t *testing.T) {
	t.Parallel()

	svc := &fakeService{reserveErr: errors.New("database down")}
	ack := &fakeAcknowledger{}
	c := &Consumer{
		service:      svc,
		requeueDelay: 10 * time.Millisecond,
	}

	started := time.Now()
	err := c.processStockCheck(context.Background(), amqp.Delivery{
		Acknowledger:  ack,
		CorrelationId: "token-1",
		Body:          encodeRequest(t, messages.StockCheckRequest{Items: []messages.Item{{ProductID: 101, Quantity: 1}}}),
	})

	require.Error(t, err)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
	assert.GreaterOrEqual(t, time.Since(started), 10*time.Millisecond)
	assert.Equal(t, []string{"token-1"}, svc.tokens)
}

func TestProcessStockCheck_MalformedRequestIsDropped(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	c := &Consumer{service: &fakeService{}}

	err := c.processStockCheck(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte("not json"),
	})

	require.Error(t, err)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestProcessOrderCreated_MalformedEventIsDropped(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	c := &Consumer{service: &fakeService{}, inboxRepo: &fakeInboxRepo{}}

	err := c.processOrderCreated(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte("not json"),
	})

	require.Error(t, err)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestProcessOrderCreated_FailureParksInInbox(t *testing.T) {
	t.Parallel()

	inboxRepo := &fakeInboxRepo{}
	ack := &fakeAcknowledger{}
	c := &Consumer{
		service:   &fakeService{applyErr: errors.New("database down")},
		inboxRepo: inboxRepo,
	}

	body, err := messages.Encode(messages.OrderCreatedEvent{
		OrderID: 42,
		Items:   []messages.Item{{ProductID: 101, Quantity: 1}},
	})
	require.NoError(t, err)

	err = c.processOrderCreated(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         body,
	})

	require.NoError(t, err)
	assert.True(t, ack.acked)
	require.Len(t, inboxRepo.inserted, 1)
	assert.Equal(t, "42", inboxRepo.inserted[0].MessageID)
}

func TestProcessOrderCreated_InboxFailureRequeues(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	c := &Consumer{
		service:   &fakeService{applyErr: errors.New("database down")},
		inboxRepo: &fakeInboxRepo{insertErr: errors.New("database down")},
	}

	body, err := messages.Encode(messages.OrderCreatedEvent{OrderID: 42})
	require.NoError(t, err)

	err = c.processOrderCreated(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         body,
	})

	require.Error(t, err)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}
