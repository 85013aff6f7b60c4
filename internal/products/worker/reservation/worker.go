package reservation

import (
	"context"
	"log/slog"
	"time"
)

// service represents the service layer interface.
type service interface {
	ReleaseExpired(ctx context.Context) (int64, error)
}

// Worker frees stock holds whose orders never materialized.
type Worker struct {
	service       service
	sweepInterval time.Duration
	stopCh        chan struct{}
}

// NewWorker creates a new reservation worker.
func NewWorker(service service, sweepInterval time.Duration) *Worker {
	return &Worker{
		service:       service,
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins sweeping expired holds.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	slog.Info("Reservation worker started", "sweep_interval", w.sweepInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reservation worker shutting down")
			return
		case <-w.stopCh:
			slog.Info("Reservation worker stopped")
			return
		case <-ticker.C:
			released, err := w.service.ReleaseExpired(ctx)
			if err != nil {
				slog.Error("Failed to release expired reservations", "error", err)
				continue
			}
			if released > 0 {
				slog.Info("Released expired reservations", "count", released)
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}
