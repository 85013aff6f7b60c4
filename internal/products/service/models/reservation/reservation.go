package reservation

import (
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
)

// Reservation is a provisional hold on stock placed by a successful
// inventory check. It is committed by the order created consumer or released
// by the janitor once it expires.
type Reservation struct {
	ID string

	// RequestToken is the correlation token of the stock check request that
	// placed the hold. A redelivered request finds the existing hold by
	// token instead of reserving twice.
	RequestToken string

	Items     []messages.Item
	CreatedAt time.Time
	ExpiresAt time.Time
}
