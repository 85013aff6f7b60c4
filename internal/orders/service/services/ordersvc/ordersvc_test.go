package ordersvc

import (
	"context"
	"errors"
	"testing"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderitemrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/inventoryrpc"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/enrichment"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	resp  *messages.StockCheckResponse
	err   error
	calls int
	items []messages.Item
}

func (f *fakeInventory) Call(_ context.Context, items []messages.Item) (*messages.StockCheckResponse, error) {
	f.calls++
	f.items = items

	return f.resp, f.err
}

type fakePublisher struct {
	err    error
	events []messages.OrderCreatedEvent
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, event messages.OrderCreatedEvent) error {
	f.events = append(f.events, event)

	return f.err
}

type fakeProductFetcher struct {
	products []enrichment.ProductInfo
	err      error
}

func (f *fakeProductFetcher) FetchProducts(_ context.Context, _ []int64) ([]enrichment.ProductInfo, error) {
	return f.products, f.err
}

type fakeUserFetcher struct {
	users []enrichment.UserInfo
	err   error
}

func (f *fakeUserFetcher) FetchUsers(_ context.Context, _ []int64) ([]enrichment.UserInfo, error) {
	return f.users, f.err
}

type fakeOrderRepo struct {
	nextID   int64
	inserted []order.Order
	queried  []order.Order
	queryErr error
}

func (f *fakeOrderRepo) BulkInsert(_ context.Context, orders []order.Order) ([]order.Order, error) {
	result := make([]order.Order, len(orders))
	for i, o := range orders {
		f.nextID++
		o.ID = f.nextID
		result[i] = o
	}
	f.inserted = append(f.inserted, result...)

	return result, nil
}

func (f *fakeOrderRepo) Query(_ context.Context, _ *order.QueryOrdersModel) ([]order.Order, error) {
	return f.queried, f.queryErr
}

type fakeOrderItemRepo struct {
	inserted []orderitem.OrderItem
	items    []orderitem.OrderItem
}

func (f *fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	result := make([]orderitem.OrderItem, len(items))
	for i, item := range items {
		item.ID = int64(i + 1)
		result[i] = item
	}
	f.inserted = append(f.inserted, result...)

	return result, nil
}

func (f *fakeOrderItemRepo) QueryByOrderIds(_ context.Context, _ []int64) ([]orderitem.OrderItem, error) {
	return f.items, nil
}

type fakeUOW struct {
	orderRepo     *fakeOrderRepo
	orderItemRepo *fakeOrderItemRepo
	begun         bool
	committed     bool
	rolledBack    bool
}

func (f *fakeUOW) Begin(_ context.Context) error {
	f.begun = true

	return nil
}

func (f *fakeUOW) Commit() error {
	f.committed = true

	return nil
}

func (f *fakeUOW) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}

	return nil
}

func (f *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return f.orderRepo
}

func (f *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return f.orderItemRepo
}

func newTestService(work *fakeUOW, inv *fakeInventory, pub *fakePublisher, products *fakeProductFetcher, users *fakeUserFetcher) *OrderService {
	return MustNewOrderService(
		WithUnitOfWorkFactory(func() unitOfWork { return work }),
		WithInventoryChecker(inv),
		WithEventPublisher(pub),
		WithProductFetcher(products),
		WithUserFetcher(users),
	)
}

func validOrder() order.Order {
	return order.Order{
		UserID: 1,
		OrderItems: []orderitem.OrderItem{
			{ProductID: 101, Quantity: 2},
			{ProductID: 103, Quantity: 1},
		},
	}
}

func TestCreateOrder_InvalidRequestSkipsInventoryCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ord  order.Order
	}{
		{name: "missing user id", ord: order.Order{OrderItems: []orderitem.OrderItem{{ProductID: 101, Quantity: 1}}}},
		{name: "no items", ord: order.Order{UserID: 1}},
		{name: "zero quantity", ord: order.Order{UserID: 1, OrderItems: []orderitem.OrderItem{{ProductID: 101}}}},
		{name: "missing product id", ord: order.Order{UserID: 1, OrderItems: []orderitem.OrderItem{{Quantity: 1}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv := &fakeInventory{}
			pub := &fakePublisher{}
			svc := newTestService(&fakeUOW{}, inv, pub, &fakeProductFetcher{}, &fakeUserFetcher{})

			_, err := svc.CreateOrder(context.Background(), tt.ord)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, inv.calls)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreateOrder_InventoryRejectionPersistsNothing(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{orderRepo: &fakeOrderRepo{}, orderItemRepo: &fakeOrderItemRepo{}}
	inv := &fakeInventory{resp: &messages.StockCheckResponse{
		Status:  messages.StatusFail,
		Details: map[string]string{"106": "Not enough stock for USB-C Hub"},
	}}
	pub := &fakePublisher{}
	svc := newTestService(work, inv, pub, &fakeProductFetcher{}, &fakeUserFetcher{})

	_, err := svc.CreateOrder(context.Background(), validOrder())

	var rejected *InventoryRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Not enough stock for USB-C Hub", rejected.Details["106"])
	assert.False(t, work.begun)
	assert.Empty(t, pub.events)
}

func TestCreateOrder_SuccessPersistsAndPublishesSameLines(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{orderRepo: &fakeOrderRepo{}, orderItemRepo: &fakeOrderItemRepo{}}
	inv := &fakeInventory{resp: &messages.StockCheckResponse{
		Status:        messages.StatusSuccess,
		ReservationID: "res-1",
	}}
	pub := &fakePublisher{}
	svc := newTestService(work, inv, pub, &fakeProductFetcher{}, &fakeUserFetcher{})

	inserted, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.NotZero(t, inserted.ID)
	assert.True(t, work.committed)
	assert.Len(t, work.orderItemRepo.inserted, 2)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, inserted.ID, event.OrderID)
	assert.Equal(t, "res-1", event.ReservationID)
	assert.Equal(t, inv.items, event.Items)
}

func TestCreateOrder_InventoryTimeoutPassesThrough(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{orderRepo: &fakeOrderRepo{}, orderItemRepo: &fakeOrderItemRepo{}}
	inv := &fakeInventory{err: inventoryrpc.ErrTimeout}
	pub := &fakePublisher{}
	svc := newTestService(work, inv, pub, &fakeProductFetcher{}, &fakeUserFetcher{})

	_, err := svc.CreateOrder(context.Background(), validOrder())
	assert.ErrorIs(t, err, inventoryrpc.ErrTimeout)
	assert.False(t, work.begun)
	assert.Empty(t, pub.events)
}

func TestCreateOrder_PublishFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{orderRepo: &fakeOrderRepo{}, orderItemRepo: &fakeOrderItemRepo{}}
	inv := &fakeInventory{resp: &messages.StockCheckResponse{Status: messages.StatusSuccess}}
	pub := &fakePublisher{err: errors.New("broker is down")}
	svc := newTestService(work, inv, pub, &fakeProductFetcher{}, &fakeUserFetcher{})

	inserted, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.NotZero(t, inserted.ID)
	assert.True(t, work.committed)
}

func TestGetUserOrders_NoOrders(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{orderRepo: &fakeOrderRepo{}, orderItemRepo: &fakeOrderItemRepo{}}
	svc := newTestService(work, &fakeInventory{}, &fakePublisher{}, &fakeProductFetcher{}, &fakeUserFetcher{})

	enriched, err := svc.GetUserOrders(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, enriched)
}

func TestGetUserOrders_EnrichesWithProductAndUserData(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{
		orderRepo: &fakeOrderRepo{queried: []order.Order{{ID: 7, UserID: 1}}},
		orderItemRepo: &fakeOrderItemRepo{items: []orderitem.OrderItem{
			{ID: 1, OrderID: 7, ProductID: 101, Quantity: 2},
		}},
	}
	products := &fakeProductFetcher{products: []enrichment.ProductInfo{
		{ID: 101, Name: "Laptop Pro", PriceCents: 120000, Inventory: 10},
	}}
	users := &fakeUserFetcher{users: []enrichment.UserInfo{
		{ID: 1, Username: "Pranav"},
	}}
	svc := newTestService(work, &fakeInventory{}, &fakePublisher{}, products, users)

	enriched, err := svc.GetUserOrders(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, int64(7), enriched[0].OrderID)
	assert.Equal(t, "Pranav", enriched[0].User.Username)
	require.Len(t, enriched[0].Items, 1)
	require.NotNil(t, enriched[0].Items[0].Product)
	assert.Equal(t, "Laptop Pro", enriched[0].Items[0].Product.Name)
	assert.False(t, enriched[0].Items[0].Unresolved)
}

func TestGetUserOrders_MissingReferencesAreMarked(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{
		orderRepo: &fakeOrderRepo{queried: []order.Order{{ID: 8, UserID: 99}}},
		orderItemRepo: &fakeOrderItemRepo{items: []orderitem.OrderItem{
			{ID: 1, OrderID: 8, ProductID: 999, Quantity: 1},
		}},
	}
	svc := newTestService(work, &fakeInventory{}, &fakePublisher{}, &fakeProductFetcher{}, &fakeUserFetcher{})

	enriched, err := svc.GetUserOrders(context.Background(), 99, nil)
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, "User not found", enriched[0].User.Error)
	require.Len(t, enriched[0].Items, 1)
	assert.True(t, enriched[0].Items[0].Unresolved)
	assert.Nil(t, enriched[0].Items[0].Product)
	assert.Equal(t, int64(999), enriched[0].Items[0].ProductID)
}

func TestGetUserOrders_UpstreamFailureReturnsNoPartialResult(t *testing.T) {
	t.Parallel()

	work := &fakeUOW{
		orderRepo: &fakeOrderRepo{queried: []order.Order{{ID: 9, UserID: 1}}},
		orderItemRepo: &fakeOrderItemRepo{items: []orderitem.OrderItem{
			{ID: 1, OrderID: 9, ProductID: 101, Quantity: 1},
		}},
	}
	products := &fakeProductFetcher{err: errors.New("connection refused")}
	users := &fakeUserFetcher{users: []enrichment.UserInfo{{ID: 1, Username: "Pranav"}}}
	svc := newTestService(work, &fakeInventory{}, &fakePublisher{}, products, users)

	enriched, err := svc.GetUserOrders(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Nil(t, enriched)
}
