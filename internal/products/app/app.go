package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/otel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	inboxrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/repositories/inbox/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/services/productsvc"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/transport/consumer"
	httptransport "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/transport/http"
	inboxworker "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/worker/inbox"
	reservationworker "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/worker/reservation"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/rabbitmq"
	"github.com/spf13/viper"
)

// App represents the products service application.
type App struct {
	productSvc        *productsvc.ProductService
	transport         *httptransport.HTTPTransport
	inboxRepository   *inboxrepo.InboxRepository
	inboxWorker       *inboxworker.Worker
	reservationWorker *reservationworker.Worker
	postgresClient    *postgres.Client
	otelController    *otel.OtelController
	stopping          atomic.Bool

	// mu guards the broker pair, which the reconnect loop swaps while
	// shutdown reads it from the main goroutine.
	mu             sync.Mutex
	rabbitMqClient *rabbitmq.Client
	consumer       *consumer.Consumer
}

// swapBroker replaces the current broker client and consumer.
func (a *App) swapBroker(client *rabbitmq.Client, cons *consumer.Consumer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rabbitMqClient = client
	a.consumer = cons
}

// currentBroker returns the current broker client and consumer.
func (a *App) currentBroker() (*rabbitmq.Client, *consumer.Consumer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.rabbitMqClient, a.consumer
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("products-svc")
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	productSvc := productsvc.MustNewProductService(
		productsvc.WithPostgresClient(postgresClient),
	)

	transport := httptransport.NewHTTPTransport(productSvc)
	transport.RegisterRoutes()

	inboxRepository := inboxrepo.NewInboxRepository(postgresClient)
	cons, err := consumer.NewConsumer(rabbitMqClient, productSvc, inboxRepository)
	if err != nil {
		panic(err.Error())
	}

	pollInterval := viper.GetInt("rabbitmq.inbox.poll_interval_seconds")
	if pollInterval == 0 {
		pollInterval = 5
	}
	batchSize := viper.GetInt("rabbitmq.inbox.batch_size")
	if batchSize == 0 {
		batchSize = 10
	}
	inboxWorker := inboxworker.NewWorker(
		inboxRepository,
		productSvc,
		time.Duration(pollInterval)*time.Second,
		batchSize,
	)

	sweepInterval := viper.GetInt("reservations.sweep_interval_seconds")
	if sweepInterval == 0 {
		sweepInterval = 60
	}
	reservationWorker := reservationworker.NewWorker(
		productSvc,
		time.Duration(sweepInterval)*time.Second,
	)

	return &App{
		productSvc:        productSvc,
		transport:         transport,
		consumer:          cons,
		inboxRepository:   inboxRepository,
		inboxWorker:       inboxWorker,
		reservationWorker: reservationWorker,
		rabbitMqClient:    rabbitMqClient,
		postgresClient:    postgresClient,
		otelController:    otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go a.runConsumer(ctx)

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting reservation worker")
		a.reservationWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	a.stopping.Store(true)
	cancel()

	a.gracefulShutdown()
}

// runConsumer keeps the broker consumer alive. When the broker drops the
// connection it redials with bounded backoff and resubscribes.
func (a *App) runConsumer(ctx context.Context) {
	backoff := time.Second

	for {
		_, cons := a.currentBroker()

		slog.Info("Starting consumer")
		if err := cons.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}

		if a.stopping.Load() || ctx.Err() != nil {
			return
		}

		slog.Warn("Consumer stopped, reconnecting", "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}

		client, err := rabbitmq.Dial()
		if err != nil {
			slog.Error("Failed to reconnect to RabbitMQ", "error", err)
			continue
		}

		cons, err = consumer.NewConsumer(client, a.productSvc, a.inboxRepository)
		if err != nil {
			slog.Error("Failed to resubscribe", "error", err)
			if closeErr := client.Close(); closeErr != nil {
				slog.Error("RabbitMQ connection close error", "error", closeErr)
			}
			continue
		}

		// The previous connection is usually already dead; closing frees the
		// socket when it is not.
		old, _ := a.currentBroker()
		if err := old.Close(); err != nil {
			slog.Debug("Previous RabbitMQ connection close error", "error", err)
		}

		a.swapBroker(client, cons)
		backoff = time.Second
	}
}

// gracefulShutdown stops the transport, workers and clients in order.
func (a *App) gracefulShutdown() {
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	rabbitMqClient, cons := a.currentBroker()

	if err := cons.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	}

	a.inboxWorker.Stop()
	slog.Info("Inbox worker stopped gracefully")

	a.reservationWorker.Stop()
	slog.Info("Reservation worker stopped gracefully")

	if err := rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.postgresClient.Close(); err != nil {
		slog.Error("Database connection close error", "error", err)
	} else {
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
