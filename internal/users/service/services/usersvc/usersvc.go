package usersvc

import (
	"context"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/dal/interfaces/iuserrepo"
	userrepo "github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/dal/repositories/user/postgres"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/service/models/user"
)

// UserService serves the account directory.
type UserService struct {
	userRepo iuserrepo.IUserRepository
}

// option is a function that configures the UserService.
type option func(*UserService)

// MustNewUserService creates a new UserService.
func MustNewUserService(opts ...option) *UserService {
	s := &UserService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the UserService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *UserService) {
		s.userRepo = userrepo.NewPostgresUserRepository(pgClient.DB())
	}
}

// WithUserRepository overrides the user repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(repo iuserrepo.IUserRepository) option {
	return func(s *UserService) {
		s.userRepo = repo
	}
}

// ListUsers retrieves all users.
func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.userRepo.List(ctx)
}

// GetUser retrieves a single user, or nil if it does not exist.
func (s *UserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// FetchUsers retrieves users matching the given ids for the batched
// enrichment contract.
func (s *UserService) FetchUsers(ctx context.Context, ids []int64) ([]user.User, error) {
	return s.userRepo.GetByIDs(ctx, ids)
}

// SeedUsers resets the directory to the demo data set.
func (s *UserService) SeedUsers(ctx context.Context) error {
	return s.userRepo.ReplaceAll(ctx, []user.User{
		{ID: 1, Username: "Pranav"},
		{ID: 2, Username: "Alex"},
	})
}
