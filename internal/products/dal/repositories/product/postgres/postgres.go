package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/products/service/models/product"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id         int64  `db:"id"`
	Name       string `db:"name"`
	PriceCents int64  `db:"price_cents"`
	Inventory  int    `db:"inventory"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() *product.Product {
	return &product.Product{
		ID:         p.Id,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Inventory:  p.Inventory,
	}
}

type PostgresProductRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresProductRepository(conn sqlx.ExtContext) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
	}
}

var productColumns = []string{"id", "name", "price_cents", "inventory"}

// List retrieves all products.
func (r *PostgresProductRepository) List(ctx context.Context) ([]product.Product, error) {
	query, args, err := sq.Select(productColumns...).
		From("products").
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryProducts(ctx, query, args...)
}

// GetByID retrieves a single product, or nil if it does not exist.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal ProductDal
	row := r.conn.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&dal.Id, &dal.Name, &dal.PriceCents, &dal.Inventory); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return dal.ToModel(), nil
}

// GetByIDs retrieves products matching the given ids.
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryProducts(ctx, query, args...)
}

// DecrementStock subtracts quantity from the product's inventory only when
// enough stock remains. It reports whether a row was updated, so the caller
// can tell a successful decrement from a skipped one.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) (bool, error) {
	query, args, err := sq.Update("products").
		Set("inventory", sq.Expr("inventory - ?", quantity)).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"inventory": quantity}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

// ReplaceAll wipes the catalog and inserts the given products.
func (r *PostgresProductRepository) ReplaceAll(ctx context.Context, products []product.Product) error {
	if _, err := r.conn.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	builder := sq.Insert("products").
		Columns(productColumns...).
		PlaceholderFormat(sq.Dollar)
	for _, p := range products {
		builder = builder.Values(p.ID, p.Name, p.PriceCents, p.Inventory)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}

	return nil
}

func (r *PostgresProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]product.Product, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		if err := rows.Scan(&dal.Id, &dal.Name, &dal.PriceCents, &dal.Inventory); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
