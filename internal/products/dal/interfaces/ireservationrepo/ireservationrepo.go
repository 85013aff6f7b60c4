package ireservationrepo

import (
	"context"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/reservation"
)

// IReservationRepository manages provisional stock holds.
type IReservationRepository interface {
	// Insert stores a new hold with its items.
	Insert(ctx context.Context, res reservation.Reservation) error

	// Take removes the hold and returns it; found is false when the hold
	// never existed or already expired and was released.
	Take(ctx context.Context, id string) (res *reservation.Reservation, found bool, err error)

	// FindByToken returns the id of the hold placed for the given request
	// token; found is false when no such hold exists.
	FindByToken(ctx context.Context, token string) (id string, found bool, err error)

	// ActiveHolds sums held quantities per product across unexpired holds.
	ActiveHolds(ctx context.Context, productIds []int64, now time.Time) (map[int64]int, error)

	// DeleteExpired removes holds past their expiry, returning the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
