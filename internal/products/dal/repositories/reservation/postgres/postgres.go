package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/messages"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/reservation"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresReservationRepository stores stock holds in two tables:
// stock_reservations for the hold itself and reservation_items for its lines.
type PostgresReservationRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresReservationRepository(conn sqlx.ExtContext) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		conn: conn,
	}
}

// Insert stores a new hold with its items.
func (r *PostgresReservationRepository) Insert(ctx context.Context, res reservation.Reservation) error {
	query, args, err := sq.Insert("stock_reservations").
		Columns("id", "request_token", "created_at", "expires_at").
		Values(res.ID, res.RequestToken, res.CreatedAt, res.ExpiresAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	builder := sq.Insert("reservation_items").
		Columns("reservation_id", "product_id", "quantity").
		PlaceholderFormat(sq.Dollar)
	for _, item := range res.Items {
		builder = builder.Values(res.ID, item.ProductID, item.Quantity)
	}

	query, args, err = builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert reservation items: %w", err)
	}

	return nil
}

// Take removes the hold and returns it. Deleting first keeps commit
// single-shot under concurrent redelivery.
func (r *PostgresReservationRepository) Take(ctx context.Context, id string) (*reservation.Reservation, bool, error) {
	itemsQuery, itemsArgs, err := sq.Select("product_id", "quantity").
		From("reservation_items").
		Where(sq.Eq{"reservation_id": id}).
		OrderBy("product_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, itemsQuery, itemsArgs...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query reservation items: %w", err)
	}
	defer rows.Close()

	var items []messages.Item
	for rows.Next() {
		var item messages.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, false, fmt.Errorf("failed to scan reservation item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows iteration error: %w", err)
	}

	query, args, err := sq.Delete("stock_reservations").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build delete query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to delete reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}

	return &reservation.Reservation{
		ID:    id,
		Items: items,
	}, true, nil
}

// FindByToken returns the id of the hold placed for the given request token.
func (r *PostgresReservationRepository) FindByToken(ctx context.Context, token string) (string, bool, error) {
	query, args, err := sq.Select("id").
		From("stock_reservations").
		Where(sq.Eq{"request_token": token}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("failed to build select query: %w", err)
	}

	var id string
	err = r.conn.QueryRowxContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query reservation by token: %w", err)
	}

	return id, true, nil
}

// ActiveHolds sums held quantities per product across unexpired holds.
func (r *PostgresReservationRepository) ActiveHolds(
	ctx context.Context,
	productIds []int64,
	now time.Time,
) (map[int64]int, error) {
	if len(productIds) == 0 {
		return map[int64]int{}, nil
	}

	query, args, err := sq.Select("ri.product_id", "COALESCE(SUM(ri.quantity), 0)").
		From("reservation_items ri").
		Join("stock_reservations r ON r.id = ri.reservation_id").
		Where(sq.Gt{"r.expires_at": now}).
		Where(sq.Expr("ri.product_id = ANY(?)", pq.Array(productIds))).
		GroupBy("ri.product_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active holds: %w", err)
	}
	defer rows.Close()

	holds := make(map[int64]int)
	for rows.Next() {
		var productID int64
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan active hold: %w", err)
		}
		holds[productID] = quantity
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return holds, nil
}

// DeleteExpired removes holds past their expiry, returning the count.
func (r *PostgresReservationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := sq.Delete("stock_reservations").
		Where(sq.LtOrEq{"expires_at": now}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reservations: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected, nil
}
