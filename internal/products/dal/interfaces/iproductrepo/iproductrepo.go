package iproductrepo

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/product"
)

// IProductRepository is an interface for the product postgres repository.
type IProductRepository interface {
	List(ctx context.Context) ([]product.Product, error)
	GetByID(ctx context.Context, id int64) (*product.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error)

	// DecrementStock subtracts quantity from the product's inventory only
	// when enough stock remains; it reports whether a row was updated.
	DecrementStock(ctx context.Context, id int64, quantity int) (bool, error)

	// ReplaceAll wipes the catalog and inserts the given products.
	ReplaceAll(ctx context.Context, products []product.Product) error
}
