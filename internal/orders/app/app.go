package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/httpclient"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/inventoryrpc"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/publisher"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/remote"
	outboxrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/repositories/outbox/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/services/ordersvc"
	httptransport "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/transport/http"
	outboxworker "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/worker/outbox"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/otel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/rabbitmq"
)

// App represents the orders service application.
type App struct {
	orderSvc        *ordersvc.OrderService
	transport       *httptransport.HTTPTransport
	outboxWorker    *outboxworker.Worker
	inventoryClient *inventoryrpc.Client
	rabbitMqClient  *rabbitmq.Client
	postgresClient  *postgres.Client
	otelController  *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("orders-svc")
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	inventoryClient, err := inventoryrpc.NewClient(rabbitMqClient)
	if err != nil {
		panic(err)
	}

	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient)
	eventPublisher := publisher.NewPublisher(rabbitMqClient, outboxRepository)

	remoteClient := httpclient.NewClient()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithInventoryChecker(inventoryClient),
		ordersvc.WithEventPublisher(eventPublisher),
		ordersvc.WithProductFetcher(remote.NewProductsClient(remoteClient)),
		ordersvc.WithUserFetcher(remote.NewUsersClient(remoteClient)),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient)

	return &App{
		orderSvc:        orderSvc,
		transport:       transport,
		outboxWorker:    outboxWorker,
		inventoryClient: inventoryClient,
		rabbitMqClient:  rabbitMqClient,
		postgresClient:  postgresClient,
		otelController:  otelController,
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

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
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

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.inventoryClient.Close(); err != nil {
		slog.Error("Inventory RPC client close error", "error", err)
	}

	if err := a.rabbitMqClient.Close(); err != nil {
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
