package iuserrepo

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/service/models/user"
)

// IUserRepository defines the interface for user operations.
type IUserRepository interface {
	// List retrieves all users
	List(ctx context.Context) ([]user.User, error)

	// GetByID retrieves a single user, or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*user.User, error)

	// GetByIDs retrieves users matching the given ids
	GetByIDs(ctx context.Context, ids []int64) ([]user.User, error)

	// ReplaceAll wipes the table and inserts the given users
	ReplaceAll(ctx context.Context, users []user.User) error
}
