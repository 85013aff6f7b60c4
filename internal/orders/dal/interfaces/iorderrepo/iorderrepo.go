package iorderrepo

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	BulkInsert(ctx context.Context, orders []order.Order) ([]order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}
