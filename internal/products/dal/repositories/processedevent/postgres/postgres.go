package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// PostgresProcessedEventRepository records applied order created events so
// that redelivery does not double-decrement stock.
type PostgresProcessedEventRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresProcessedEventRepository(conn sqlx.ExtContext) *PostgresProcessedEventRepository {
	return &PostgresProcessedEventRepository{
		conn: conn,
	}
}

// MarkProcessed records the order id; inserted is false when the event was
// processed before.
func (r *PostgresProcessedEventRepository) MarkProcessed(ctx context.Context, orderID int64) (bool, error) {
	query, args, err := sq.Insert("processed_events").
		Columns("order_id", "processed_at").
		Values(orderID, time.Now()).
		Suffix("ON CONFLICT (order_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}
