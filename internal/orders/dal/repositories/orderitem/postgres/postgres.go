package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id        int64     `db:"id"`
	OrderId   int64     `db:"order_id"`
	ProductId int64     `db:"product_id"`
	Quantity  int       `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:        oi.Id,
		OrderID:   oi.OrderId,
		ProductID: oi.ProductId,
		Quantity:  oi.Quantity,
		CreatedAt: oi.CreatedAt,
		UpdatedAt: oi.UpdatedAt,
	}
}

type PostgresOrderItemRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresOrderItemRepository(conn sqlx.ExtContext) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts multiple order items and returns them with IDs.
func (r *PostgresOrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	sql := `
		INSERT INTO order_items (
			order_id,
			product_id,
			quantity,
			created_at,
			updated_at
		)
		SELECT
			order_id,
			product_id,
			quantity,
			created_at,
			updated_at
		FROM unnest($1::bigint[], $2::bigint[], $3::int[], $4::timestamp[], $5::timestamp[])
		AS t(order_id, product_id, quantity, created_at, updated_at)
		RETURNING
			id,
			order_id,
			product_id,
			quantity,
			created_at,
			updated_at
	`

	orderIds := make([]int64, len(items))
	productIds := make([]int64, len(items))
	quantities := make([]int, len(items))
	createdAts := make([]time.Time, len(items))
	updatedAts := make([]time.Time, len(items))

	for i, item := range items {
		orderIds[i] = item.OrderID
		productIds[i] = item.ProductID
		quantities[i] = item.Quantity
		createdAts[i] = item.CreatedAt
		updatedAts[i] = item.UpdatedAt
	}

	rows, err := r.conn.QueryContext(ctx, sql,
		pq.Array(orderIds),
		pq.Array(productIds),
		pq.Array(quantities),
		pq.Array(createdAts),
		pq.Array(updatedAts))
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// QueryByOrderIds retrieves items belonging to the given orders.
func (r *PostgresOrderItemRepository) QueryByOrderIds(ctx context.Context, orderIds []int64) ([]orderitem.OrderItem, error) {
	if len(orderIds) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query, args, err := sq.Select(
		"id",
		"order_id",
		"product_id",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("order_items").
		Where(sq.Expr("order_id = ANY(?)", pq.Array(orderIds))).
		OrderBy("order_id", "id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
