package productsvc

import (
	"context"
	"testing"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iprocessedeventrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iproductrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/ireservationrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/product"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products map[int64]*product.Product
}

func (f *fakeProductRepo) List(_ context.Context) ([]product.Product, error) {
	var result []product.Product
	for _, p := range f.products {
		result = append(result, *p)
	}

	return result, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	clone := *p

	return &clone, nil
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	var result []product.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result = append(result, *p)
		}
	}

	return result, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id int64, quantity int) (bool, error) {
	p, ok := f.products[id]
	if !ok || p.Inventory < quantity {
		return false, nil
	}
	p.Inventory -= quantity

	return true, nil
}

func (f *fakeProductRepo) ReplaceAll(_ context.Context, products []product.Product) error {
	f.products = make(map[int64]*product.Product, len(products))
	for _, p := range products {
		clone := p
		f.products[p.ID] = &clone
	}

	return nil
}

type fakeReservationRepo struct {
	holds map[string]reservation.Reservation
}

func (f *fakeReservationRepo) Insert(_ context.Context, res reservation.Reservation) error {
	f.holds[res.ID] = res

	return nil
}

func (f *fakeReservationRepo) Take(_ context.Context, id string) (*reservation.Reservation, bool, error) {
	res, ok := f.holds[id]
	if !ok {
		return nil, false, nil
	}
	delete(f.holds, id)

	return &res, true, nil
}

func (f *fakeReservationRepo) FindByToken(_ context.Context, token string) (string, bool, error) {
	for id, res := range f.holds {
		if res.RequestToken == token {
			return id, true, nil
		}
	}

	return "", false, nil
}

func (f *fakeReservationRepo) ActiveHolds(_ context.Context, productIds []int64, now time.Time) (map[int64]int, error) {
	wanted := make(map[int64]struct{}, len(productIds))
	for _, id := range productIds {
		wanted[id] = struct{}{}
	}

	held := make(map[int64]int)
	for _, res := range f.holds {
		if !res.ExpiresAt.After(now) {
			continue
		}
		for _, item := range res.Items {
			if _, ok := wanted[item.ProductID]; ok {
				held[item.ProductID] += item.Quantity
			}
		}
	}

	return held, nil
}

func (f *fakeReservationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, res := range f.holds {
		if !res.ExpiresAt.After(now) {
			delete(f.holds, id)
			deleted++
		}
	}

	return deleted, nil
}

type fakeProcessedEventRepo struct {
	seen map[int64]struct{}
}

func (f *fakeProcessedEventRepo) MarkProcessed(_ context.Context, orderID int64) (bool, error) {
	if _, ok := f.seen[orderID]; ok {
		return false, nil
	}
	f.seen[orderID] = struct{}{}

	return true, nil
}

type fakeUOW struct {
	productRepo        *fakeProductRepo
	reservationRepo    *fakeReservationRepo
	processedEventRepo *fakeProcessedEventRepo
	commits            int
	rollbacks          int
}

func (f *fakeUOW) Begin(_ context.Context) error { return nil }

func (f *fakeUOW) Commit() error {
	f.commits++

	return nil
}

func (f *fakeUOW) Rollback() error {
	f.rollbacks++

	return nil
}

func (f *fakeUOW) ProductRepository() iproductrepo.IProductRepository {
	return f.productRepo
}

func (f *fakeUOW) ReservationRepository() ireservationrepo.IReservationRepository {
	return f.reservationRepo
}

func (f *fakeUOW) ProcessedEventRepository() iprocessedeventrepo.IProcessedEventRepository {
	return f.processedEventRepo
}

func newFakeUOW(products ...product.Product) *fakeUOW {
	repo := &fakeProductRepo{}
	_ = repo.ReplaceAll(context.Background(), products)

	return &fakeUOW{
		productRepo:        repo,
		reservationRepo:    &fakeReservationRepo{holds: make(map[string]reservation.Reservation)},
		processedEventRepo: &fakeProcessedEventRepo{seen: make(map[int64]struct{})},
	}
}

func newTestService(work *fakeUOW) *ProductService {
	return MustNewProductService(
		WithUnitOfWorkFactory(func() unitOfWork { return work }),
		WithReservationTTL(10*time.Minute),
	)
}

func TestReserveStock_SuccessPlacesHold(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(
		product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10},
		product.Product{ID: 102, Name: "Wireless Mouse", Inventory: 50},
	)
	svc := newTestService(work)

	resp, err := svc.ReserveStock(context.Background(), "", []messages.Item{
		{ProductID: 101, Quantity: 2},
		{ProductID: 102, Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, messages.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.ReservationID)
	assert.Len(t, work.reservationRepo.holds, 1)

	// The hold only protects stock, it does not decrement it yet.
	assert.Equal(t, 10, work.productRepo.products[101].Inventory)
}

func TestReserveStock_InsufficientStockHoldsNothing(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(
		product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10},
		product.Product{ID: 106, Name: "USB-C Hub", Inventory: 0},
	)
	svc := newTestService(work)

	resp, err := svc.ReserveStock(context.Background(), "", []messages.Item{
		{ProductID: 101, Quantity: 2},
		{ProductID: 106, Quantity: 1},
	})
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Not enough stock for USB-C Hub", resp.Details["106"])
	assert.NotContains(t, resp.Details, "101")
	assert.Empty(t, resp.ReservationID)
	assert.Empty(t, work.reservationRepo.holds)
}

func TestReserveStock_UnknownProduct(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	svc := newTestService(work)

	resp, err := svc.ReserveStock(context.Background(), "", []messages.Item{
		{ProductID: 999, Quantity: 1},
	})
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Not enough stock for Unknown Product", resp.Details["999"])
}

func TestReserveStock_ActiveHoldsReduceAvailability(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	work.reservationRepo.holds["held"] = reservation.Reservation{
		ID:        "held",
		Items:     []messages.Item{{ProductID: 101, Quantity: 9}},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	svc := newTestService(work)

	resp, err := svc.ReserveStock(context.Background(), "", []messages.Item{
		{ProductID: 101, Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Not enough stock for Laptop Pro", resp.Details["101"])
}

func TestReserveStock_ExpiredHoldsDoNotCount(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	work.reservationRepo.holds["expired"] = reservation.Reservation{
		ID:        "expired",
		Items:     []messages.Item{{ProductID: 101, Quantity: 9}},
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	svc := newTestService(work)

	resp, err := svc.ReserveStock(context.Background(), "", []messages.Item{
		{ProductID: 101, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, messages.StatusSuccess, resp.Status)
}

func TestReserveStock_RedeliveredRequestReusesHold(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 3})
	svc := newTestService(work)

	items := []messages.Item{{ProductID: 101, Quantity: 2}}

	first, err := svc.ReserveStock(context.Background(), "token-1", items)
	require.NoError(t, err)
	require.Equal(t, messages.StatusSuccess, first.Status)

	// The broker redelivers the same request when the ack is lost after the
	// reply; the second pass must not reserve the remaining stock again.
	second, err := svc.ReserveStock(context.Background(), "token-1", items)
	require.NoError(t, err)
	assert.Equal(t, messages.StatusSuccess, second.Status)
	assert.Equal(t, first.ReservationID, second.ReservationID)
	assert.Len(t, work.reservationRepo.holds, 1)
}

func TestApplyOrderCreated_CommitsReservedHold(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	work.reservationRepo.holds["res-1"] = reservation.Reservation{
		ID:        "res-1",
		Items:     []messages.Item{{ProductID: 101, Quantity: 2}},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	svc := newTestService(work)

	err := svc.ApplyOrderCreated(context.Background(), messages.OrderCreatedEvent{
		OrderID:       42,
		ReservationID: "res-1",
		Items:         []messages.Item{{ProductID: 101, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, work.productRepo.products[101].Inventory)
	assert.Empty(t, work.reservationRepo.holds)
}

func TestApplyOrderCreated_RedeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	svc := newTestService(work)

	event := messages.OrderCreatedEvent{
		OrderID: 42,
		Items:   []messages.Item{{ProductID: 101, Quantity: 2}},
	}

	require.NoError(t, svc.ApplyOrderCreated(context.Background(), event))
	require.NoError(t, svc.ApplyOrderCreated(context.Background(), event))

	assert.Equal(t, 8, work.productRepo.products[101].Inventory)
}

func TestApplyOrderCreated_NeverUnderflowsInventory(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 106, Name: "USB-C Hub", Inventory: 1})
	svc := newTestService(work)

	err := svc.ApplyOrderCreated(context.Background(), messages.OrderCreatedEvent{
		OrderID: 43,
		Items:   []messages.Item{{ProductID: 106, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, work.productRepo.products[106].Inventory)
}

func TestApplyOrderCreated_SkipsUnknownProductLines(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	svc := newTestService(work)

	err := svc.ApplyOrderCreated(context.Background(), messages.OrderCreatedEvent{
		OrderID: 44,
		Items: []messages.Item{
			{ProductID: 999, Quantity: 1},
			{ProductID: 101, Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, work.productRepo.products[101].Inventory)
}

func TestApplyOrderCreated_ExpiredReservationFallsBackToEventLines(t *testing.T) {
	t.Parallel()

	work := newFakeUOW(product.Product{ID: 101, Name: "Laptop Pro", Inventory: 10})
	svc := newTestService(work)

	err := svc.ApplyOrderCreated(context.Background(), messages.OrderCreatedEvent{
		OrderID:       45,
		ReservationID: "long-gone",
		Items:         []messages.Item{{ProductID: 101, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, work.productRepo.products[101].Inventory)
}

func TestReleaseExpired(t *testing.T) {
	t.Parallel()

	work := newFakeUOW()
	work.reservationRepo.holds["expired"] = reservation.Reservation{
		ID:        "expired",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	work.reservationRepo.holds["active"] = reservation.Reservation{
		ID:        "active",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	svc := newTestService(work)

	released, err := svc.ReleaseExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	assert.Contains(t, work.reservationRepo.holds, "active")
}

func TestSeedProducts(t *testing.T) {
	t.Parallel()

	work := newFakeUOW()
	svc := newTestService(work)

	require.NoError(t, svc.SeedProducts(context.Background()))
	assert.Len(t, work.productRepo.products, 6)
	assert.Equal(t, "Laptop Pro", work.productRepo.products[101].Name)
	assert.Equal(t, 0, work.productRepo.products[106].Inventory)
}
