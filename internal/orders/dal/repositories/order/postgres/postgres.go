package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id        int64     `db:"id"`
	UserId    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:         o.Id,
		UserID:     o.UserId,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		OrderItems: []orderitem.OrderItem{},
	}
}

type PostgresOrderRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresOrderRepository(conn sqlx.ExtContext) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// BulkInsert inserts multiple orders and returns the inserted orders with IDs.
func (r *PostgresOrderRepository) BulkInsert(ctx context.Context, orders []order.Order) ([]order.Order, error) {
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	sql := `
		INSERT INTO orders (
			user_id,
			created_at,
			updated_at
		)
		SELECT
			user_id,
			created_at,
			updated_at
		FROM unnest($1::bigint[], $2::timestamp[], $3::timestamp[])
		AS t(user_id, created_at, updated_at)
		RETURNING
			id,
			user_id,
			created_at,
			updated_at
	`

	userIds := make([]int64, len(orders))
	createdAts := make([]time.Time, len(orders))
	updatedAts := make([]time.Time, len(orders))

	for i, o := range orders {
		userIds[i] = o.UserID
		createdAts[i] = o.CreatedAt
		updatedAts[i] = o.UpdatedAt
	}

	rows, err := r.conn.QueryContext(ctx, sql,
		pq.Array(userIds),
		pq.Array(createdAts),
		pq.Array(updatedAts))
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	i := 0
	for rows.Next() {
		dal := OrderDal{}
		err := rows.Scan(
			&dal.Id,
			&dal.UserId,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		model := dal.ToModel()
		model.OrderItems = append(model.OrderItems, orders[i].OrderItems...)
		i++

		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves orders based on filter criteria.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	sqlBuilder := strings.Builder{}
	sqlBuilder.WriteString(`
		SELECT
			id,
			user_id,
			created_at,
			updated_at
		FROM orders
	`)

	args := []interface{}{}
	conditions := []string{}
	argIndex := 1

	if len(filter.Ids) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIndex))
		args = append(args, pq.Array(filter.Ids))
		argIndex++
	}

	if len(filter.UserIds) > 0 {
		conditions = append(conditions, fmt.Sprintf("user_id = ANY($%d)", argIndex))
		args = append(args, pq.Array(filter.UserIds))
		argIndex++
	}

	if len(conditions) > 0 {
		sqlBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	sqlBuilder.WriteString(" ORDER BY id")

	if filter.Limit > 0 {
		sqlBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		sqlBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argIndex))
		args = append(args, filter.Offset)
	}

	rows, err := r.conn.QueryContext(ctx, sqlBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.UserId,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
