package uow

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderitemrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/interfaces/iorderrepo"
	orderrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/repositories/order/postgres"
	orderitemrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/repositories/orderitem/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"

	"github.com/jmoiron/sqlx"
)

type unitOfWork struct {
	db            *sqlx.DB
	tx            *sqlx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func NewUnitOfWork(db *postgres.Client) *unitOfWork {
	return &unitOfWork{
		db:            db.DB(),
		orderRepo:     orderrepo.NewPostgresOrderRepository(db.DB()),
		orderItemRepo: orderitemrepo.NewPostgresOrderItemRepository(db.DB()),
	}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(tx)

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit()
}

func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback()
}
