package uow

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iprocessedeventrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/iproductrepo"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/interfaces/ireservationrepo"
	processedeventrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/repositories/processedevent/postgres"
	productrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/repositories/product/postgres"
	reservationrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/dal/repositories/reservation/postgres"

	"github.com/jmoiron/sqlx"
)

type unitOfWork struct {
	db                 *sqlx.DB
	tx                 *sqlx.Tx
	productRepo        iproductrepo.IProductRepository
	reservationRepo    ireservationrepo.IReservationRepository
	processedEventRepo iprocessedeventrepo.IProcessedEventRepository
}

func (u *unitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *unitOfWork) ReservationRepository() ireservationrepo.IReservationRepository {
	return u.reservationRepo
}

func (u *unitOfWork) ProcessedEventRepository() iprocessedeventrepo.IProcessedEventRepository {
	return u.processedEventRepo
}

func NewUnitOfWork(db *postgres.Client) *unitOfWork {
	return &unitOfWork{
		db:                 db.DB(),
		productRepo:        productrepo.NewPostgresProductRepository(db.DB()),
		reservationRepo:    reservationrepo.NewPostgresReservationRepository(db.DB()),
		processedEventRepo: processedeventrepo.NewPostgresProcessedEventRepository(db.DB()),
	}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	u.tx = tx
	u.productRepo = productrepo.NewPostgresProductRepository(tx)
	u.reservationRepo = reservationrepo.NewPostgresReservationRepository(tx)
	u.processedEventRepo = processedeventrepo.NewPostgresProcessedEventRepository(tx)

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
