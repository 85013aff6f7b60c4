package iorderitemrepo

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
)

// IOrderItemRepository is an interface for the order item postgres repository.
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)
	QueryByOrderIds(ctx context.Context, orderIds []int64) ([]orderitem.OrderItem, error)
}
