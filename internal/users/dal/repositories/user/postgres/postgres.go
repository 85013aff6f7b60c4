package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/service/models/user"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserDal represents user data access layer model.
type UserDal struct {
	Id       int64  `db:"id"`
	Username string `db:"username"`
}

// ToModel converts UserDal to service layer User model.
func (u *UserDal) ToModel() *user.User {
	return &user.User{
		ID:       u.Id,
		Username: u.Username,
	}
}

type PostgresUserRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresUserRepository(conn sqlx.ExtContext) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
	}
}

// List retrieves all users.
func (r *PostgresUserRepository) List(ctx context.Context) ([]user.User, error) {
	query, args, err := sq.Select("id", "username").
		From("users").
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryUsers(ctx, query, args...)
}

// GetByID retrieves a single user, or nil if it does not exist.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query, args, err := sq.Select("id", "username").
		From("users").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal UserDal
	row := r.conn.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&dal.Id, &dal.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return dal.ToModel(), nil
}

// GetByIDs retrieves users matching the given ids.
func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}

	query, args, err := sq.Select("id", "username").
		From("users").
		Where(sq.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryUsers(ctx, query, args...)
}

// ReplaceAll wipes the table and inserts the given users.
func (r *PostgresUserRepository) ReplaceAll(ctx context.Context, users []user.User) error {
	if _, err := r.conn.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	builder := sq.Insert("users").
		Columns("id", "username").
		PlaceholderFormat(sq.Dollar)
	for _, u := range users {
		builder = builder.Values(u.ID, u.Username)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert users: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var dal UserDal
		if err := rows.Scan(&dal.Id, &dal.Username); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
