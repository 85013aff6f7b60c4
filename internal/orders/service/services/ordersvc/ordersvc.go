package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderitemrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/uow"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/enrichment"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidRequest is returned when the request misses the user id or
	// the item list is empty.
	ErrInvalidRequest = errors.New("user id and a list of items are required")

	// ErrUpstreamUnavailable is returned when a remote batch fetch failed
	// during enrichment.
	ErrUpstreamUnavailable = errors.New("failed to fetch related data")

	// ErrPersistenceFailure is returned when the local order write failed.
	ErrPersistenceFailure = errors.New("failed to persist order")
)

// InventoryRejectedError reports which lines the inventory check refused.
type InventoryRejectedError struct {
	Details map[string]string
}

func (e *InventoryRejectedError) Error() string {
	return "inventory check failed"
}

// inventoryChecker performs the blocking stock check RPC.
type inventoryChecker interface {
	Call(ctx context.Context, items []messages.Item) (*messages.StockCheckResponse, error)
}

// eventPublisher emits order created events.
type eventPublisher interface {
	PublishOrderCreated(ctx context.Context, event messages.OrderCreatedEvent) error
}

// productFetcher retrieves product records from the products service.
type productFetcher interface {
	FetchProducts(ctx context.Context, ids []int64) ([]enrichment.ProductInfo, error)
}

// userFetcher retrieves user records from the users service.
type userFetcher interface {
	FetchUsers(ctx context.Context, ids []int64) ([]enrichment.UserInfo, error)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
}

// OrderService coordinates order creation across the inventory check, the
// local write and the order created event, and serves the enriched read path.
type OrderService struct {
	newUOW    func() unitOfWork
	inventory inventoryChecker
	publisher eventPublisher
	products  productFetcher
	users     userFetcher
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWorkFactory overrides unit of work construction.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithInventoryChecker sets the inventory RPC client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInventoryChecker(inventory inventoryChecker) option {
	return func(s *OrderService) {
		s.inventory = inventory
	}
}

// WithEventPublisher sets the order created event publisher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(publisher eventPublisher) option {
	return func(s *OrderService) {
		s.publisher = publisher
	}
}

// WithProductFetcher sets the products service client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductFetcher(products productFetcher) option {
	return func(s *OrderService) {
		s.products = products
	}
}

// WithUserFetcher sets the users service client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserFetcher(users userFetcher) option {
	return func(s *OrderService) {
		s.users = users
	}
}

// CreateOrder validates the request, performs the synchronous inventory
// check, persists the order with its items in one transaction and publishes
// the order created event. A publish failure is logged but never rolls back
// the persisted order or fails the caller.
func (s *OrderService) CreateOrder(ctx context.Context, ord order.Order) (*order.Order, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validateOrder(ord); err != nil {
		return nil, err
	}

	items := make([]messages.Item, len(ord.OrderItems))
	for i, item := range ord.OrderItems {
		items[i] = messages.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	resp, err := s.inventory.Call(ctx, items)
	if err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, &InventoryRejectedError{Details: resp.Details}
	}

	inserted, err := s.persistOrder(ctx, ord)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	event := messages.OrderCreatedEvent{
		OrderID:       inserted.ID,
		ReservationID: resp.ReservationID,
		Items:         items,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		slog.Error("Failed to publish order created event",
			"order_id", inserted.ID,
			"error", err,
		)
	}

	return inserted, nil
}

// persistOrder writes the order and its items as one atomic unit.
func (s *OrderService) persistOrder(ctx context.Context, ord order.Order) (*order.Order, error) {
	now := time.Now()
	ord.CreatedAt = now
	ord.UpdatedAt = now

	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = work.Rollback()
	}()

	orders, err := work.OrderRepository().BulkInsert(ctx, []order.Order{ord})
	if err != nil {
		return nil, err
	}
	inserted := orders[0]

	items := make([]orderitem.OrderItem, len(inserted.OrderItems))
	for i, item := range inserted.OrderItems {
		item.OrderID = inserted.ID
		item.CreatedAt = now
		item.UpdatedAt = now
		items[i] = item
	}

	items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}
	inserted.OrderItems = items

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return &inserted, nil
}

// GetUserOrders joins the user's locally stored orders with remotely fetched
// product and user data. Remote ids are collected across all orders and
// fetched in one batched call per service. If either fetch fails entirely,
// no partial result is returned.
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64, filter *order.QueryOrdersModel) ([]enrichment.EnrichedOrder, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.GetUserOrders")
	defer span.End()

	if filter == nil {
		filter = &order.QueryOrdersModel{}
	}
	filter.UserIds = []int64{userID}

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []enrichment.EnrichedOrder{}, nil
	}

	orderIds := make([]int64, len(orders))
	for i, o := range orders {
		orderIds[i] = o.ID
	}

	items, err := work.OrderItemRepository().QueryByOrderIds(ctx, orderIds)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return s.enrichOrders(ctx, orders)
}

// enrichOrders resolves product and user references for the given orders.
func (s *OrderService) enrichOrders(ctx context.Context, orders []order.Order) ([]enrichment.EnrichedOrder, error) {
	productIds := distinctProductIds(orders)
	userIds := distinctUserIds(orders)

	var (
		products []enrichment.ProductInfo
		users    []enrichment.UserInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.FetchProducts(gctx, productIds)

		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users.FetchUsers(gctx, userIds)

		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	productsByID := make(map[int64]enrichment.ProductInfo, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	usersByID := make(map[int64]enrichment.UserInfo, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	enriched := make([]enrichment.EnrichedOrder, 0, len(orders))
	for _, o := range orders {
		enrichedItems := make([]enrichment.EnrichedItem, 0, len(o.OrderItems))
		for _, item := range o.OrderItems {
			if p, ok := productsByID[item.ProductID]; ok {
				enrichedItems = append(enrichedItems, enrichment.EnrichedItem{
					Product:   &p,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
			} else {
				enrichedItems = append(enrichedItems, enrichment.EnrichedItem{
					ProductID:  item.ProductID,
					Quantity:   item.Quantity,
					Unresolved: true,
				})
			}
		}

		user, ok := usersByID[o.UserID]
		if !ok {
			user = enrichment.UserInfo{Error: "User not found"}
		}

		enriched = append(enriched, enrichment.EnrichedOrder{
			OrderID: o.ID,
			User:    user,
			Items:   enrichedItems,
		})
	}

	return enriched, nil
}

func validateOrder(ord order.Order) error {
	if ord.UserID == 0 || len(ord.OrderItems) == 0 {
		return ErrInvalidRequest
	}
	for _, item := range ord.OrderItems {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return ErrInvalidRequest
		}
	}

	return nil
}

func distinctProductIds(orders []order.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		for _, item := range o.OrderItems {
			if _, ok := seen[item.ProductID]; !ok {
				seen[item.ProductID] = struct{}{}
				ids = append(ids, item.ProductID)
			}
		}
	}

	return ids
}

func distinctUserIds(orders []order.Order) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, o := range orders {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			ids = append(ids, o.UserID)
		}
	}

	return ids
}
