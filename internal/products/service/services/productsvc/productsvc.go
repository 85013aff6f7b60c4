package productsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iprocessedeventrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iproductrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/ireservationrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/uow"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/product"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/reservation"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductRepository() iproductrepo.IProductRepository
	ReservationRepository() ireservationrepo.IReservationRepository
	ProcessedEventRepository() iprocessedeventrepo.IProcessedEventRepository
}

// ProductService owns the product catalog and all inventory mutation: stock
// checks place reservation holds, order created events commit them.
type ProductService struct {
	newUOW         func() unitOfWork
	reservationTTL time.Duration
}

// option is a function that configures the ProductService.
type option func(*ProductService)

// MustNewProductService creates a new ProductService.
func MustNewProductService(opts ...option) *ProductService {
	ttlSeconds := viper.GetInt("reservations.ttl_seconds")
	if ttlSeconds == 0 {
		ttlSeconds = 600
	}

	s := &ProductService{
		reservationTTL: time.Duration(ttlSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the ProductService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *ProductService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWorkFactory overrides unit of work construction.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *ProductService) {
		s.newUOW = factory
	}
}

// WithReservationTTL overrides how long a hold stays valid.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithReservationTTL(ttl time.Duration) option {
	return func(s *ProductService) {
		s.reservationTTL = ttl
	}
}

// ReserveStock evaluates the requested lines against current stock minus
// active holds. When every line fits, it places a hold keyed by the request's
// correlation token and answers success; otherwise it answers fail with a
// reason per failing product and holds nothing. A redelivered request whose
// hold is already placed answers with the existing hold instead of reserving
// twice. The whole evaluation runs in one transaction.
func (s *ProductService) ReserveStock(ctx context.Context, token string, items []messages.Item) (*messages.StockCheckResponse, error) {
	ctx, span := otel.Tracer("productsvc").Start(ctx, "ProductService.ReserveStock")
	defer span.End()

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = work.Rollback()
	}()

	if token != "" {
		id, found, err := work.ReservationRepository().FindByToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if found {
			slog.Info("Stock check request redelivered, reusing hold",
				"request_token", token,
				"reservation_id", id,
			)

			return &messages.StockCheckResponse{
				Status:        messages.StatusSuccess,
				ReservationID: id,
			}, nil
		}
	}

	productIds := make([]int64, len(items))
	for i, item := range items {
		productIds[i] = item.ProductID
	}

	products, err := work.ProductRepository().GetByIDs(ctx, productIds)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	now := time.Now()
	holds, err := work.ReservationRepository().ActiveHolds(ctx, productIds, now)
	if err != nil {
		return nil, err
	}

	details := make(map[string]string)
	for _, item := range items {
		p, ok := productsByID[item.ProductID]
		name := "Unknown Product"
		available := 0
		if ok {
			name = p.Name
			available = p.Inventory - holds[p.ID]
		}
		if !ok || available < item.Quantity {
			details[strconv.FormatInt(item.ProductID, 10)] = fmt.Sprintf("Not enough stock for %s", name)
		}
	}

	if len(details) > 0 {
		return &messages.StockCheckResponse{
			Status:  messages.StatusFail,
			Details: details,
		}, nil
	}

	res := reservation.Reservation{
		ID:           uuid.NewString(),
		RequestToken: token,
		Items:        items,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.reservationTTL),
	}
	if err := work.ReservationRepository().Insert(ctx, res); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return &messages.StockCheckResponse{
		Status:        messages.StatusSuccess,
		ReservationID: res.ID,
	}, nil
}

// ApplyOrderCreated commits the event's stock decrement as one atomic
// update. The order id is recorded with the mutation, so a redelivered
// event is a no-op. A line whose product is missing or short on stock is
// skipped; inventory never goes below zero.
func (s *ProductService) ApplyOrderCreated(ctx context.Context, event messages.OrderCreatedEvent) error {
	ctx, span := otel.Tracer("productsvc").Start(ctx, "ProductService.ApplyOrderCreated")
	defer span.End()

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = work.Rollback()
	}()

	inserted, err := work.ProcessedEventRepository().MarkProcessed(ctx, event.OrderID)
	if err != nil {
		return err
	}
	if !inserted {
		slog.Info("Order created event already processed, skipping", "order_id", event.OrderID)

		return work.Commit()
	}

	items := event.Items
	if event.ReservationID != "" {
		res, found, err := work.ReservationRepository().Take(ctx, event.ReservationID)
		if err != nil {
			return err
		}
		if found {
			items = res.Items
		} else {
			slog.Warn("Reservation expired before the order event arrived, decrementing without hold",
				"order_id", event.OrderID,
				"reservation_id", event.ReservationID,
			)
		}
	}

	for _, item := range items {
		updated, err := work.ProductRepository().DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !updated {
			slog.Warn("Skipping stock decrement",
				"order_id", event.OrderID,
				"product_id", item.ProductID,
				"quantity", item.Quantity,
			)
		}
	}

	if err := work.Commit(); err != nil {
		return err
	}

	slog.Info("Inventory updated for order", "order_id", event.OrderID)

	return nil
}

// ReleaseExpired removes holds past their expiry.
func (s *ProductService) ReleaseExpired(ctx context.Context) (int64, error) {
	work := s.newUOW()

	return work.ReservationRepository().DeleteExpired(ctx, time.Now())
}

// ListProducts retrieves the whole catalog.
func (s *ProductService) ListProducts(ctx context.Context) ([]product.Product, error) {
	work := s.newUOW()

	return work.ProductRepository().List(ctx)
}

// GetProduct retrieves a single product, or nil if it does not exist.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	work := s.newUOW()

	return work.ProductRepository().GetByID(ctx, id)
}

// FetchProducts retrieves products matching the given ids for the batched
// enrichment contract.
func (s *ProductService) FetchProducts(ctx context.Context, ids []int64) ([]product.Product, error) {
	work := s.newUOW()

	return work.ProductRepository().GetByIDs(ctx, ids)
}

// SeedProducts resets the catalog to the demo data set.
func (s *ProductService) SeedProducts(ctx context.Context) error {
	work := s.newUOW()

	return work.ProductRepository().ReplaceAll(ctx, []product.Product{
		{ID: 101, Name: "Laptop Pro", PriceCents: 120000, Inventory: 10},
		{ID: 102, Name: "Wireless Mouse", PriceCents: 2500, Inventory: 50},
		{ID: 103, Name: "Mechanical Keyboard", PriceCents: 15000, Inventory: 20},
		{ID: 104, Name: "4K Monitor", PriceCents: 45000, Inventory: 15},
		{ID: 105, Name: "Webcam HD", PriceCents: 8000, Inventory: 30},
		{ID: 106, Name: "USB-C Hub", PriceCents: 4500, Inventory: 0},
	})
}
