package inbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iinboxrepo"
)

// service represents the service layer interface.
type service interface {
	ApplyOrderCreated(ctx context.Context, event messages.OrderCreatedEvent) error
}

// Worker retries order created events parked in the inbox table.
type Worker struct {
	inboxRepo    iinboxrepo.IInboxRepository
	service      service
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
}

// NewWorker creates a new inbox worker.
func NewWorker(
	inboxRepo iinboxrepo.IInboxRepository,
	service service,
	pollInterval time.Duration,
	batchSize int,
) *Worker {
	return &Worker{
		inboxRepo:    inboxRepo,
		service:      service,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")
			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")
			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages retrieves and processes pending messages from the inbox.
func (w *Worker) processMessages(ctx context.Context) {
	pending, err := w.inboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from inbox", "error", err)
		return
	}

	if len(pending) == 0 {
		return
	}

	slog.Info("Processing inbox messages", "count", len(pending))

	for _, msg := range pending {
		var event messages.OrderCreatedEvent
		if err := messages.Decode(msg.Payload, &event); err != nil {
			slog.Error("Failed to unmarshal order created event from inbox", "error", err, "inbox_id", msg.ID)

			newRetryCount := msg.RetryCount + 1
			if newRetryCount >= msg.MaxRetries {
				slog.Warn("Max retries reached for malformed message, deleting",
					"inbox_id", msg.ID,
					"message_id", msg.MessageID,
				)
				if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
					slog.Error("Failed to delete message from inbox", "inbox_id", msg.ID, "error", err)
				}
			} else {
				backoffSeconds := math.Pow(2, float64(newRetryCount)) * 30
				nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)
				if err := w.inboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, err.Error(), nextRetryAt); err != nil {
					slog.Error("Failed to update retry information", "inbox_id", msg.ID, "error", err)
				}
			}
			continue
		}

		if err := w.service.ApplyOrderCreated(ctx, event); err != nil {
			newRetryCount := msg.RetryCount + 1
			backoffSeconds := math.Pow(2, float64(newRetryCount)) * 30 // 30s, 60s, 120s, 240s, etc.
			nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)

			slog.Warn("Failed to apply order created event from inbox, will retry",
				"inbox_id", msg.ID,
				"order_id", event.OrderID,
				"retry_count", newRetryCount,
				"next_retry", nextRetryAt,
				"error", err,
			)

			if err := w.inboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, err.Error(), nextRetryAt); err != nil {
				slog.Error("Failed to update retry information", "inbox_id", msg.ID, "error", err)
			}
			continue
		}

		if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from inbox after successful processing",
				"inbox_id", msg.ID,
				"error", err,
			)
		} else {
			slog.Info("Message successfully processed and removed from inbox",
				"inbox_id", msg.ID,
				"message_id", msg.MessageID,
				"order_id", event.OrderID,
			)
		}
	}
}
