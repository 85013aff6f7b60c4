package order

import (
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
)

// Order represents an order in the system. Items are owned exclusively by
// the order and are removed with it.
type Order struct {
	ID         int64                 `json:"id"`
	UserID     int64                 `json:"userId"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
	OrderItems []orderitem.OrderItem `json:"orderItems"`
}
