package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/money"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id          string    `db:"id"`
	Name        string    `db:"name"`
	ImageUrl    string    `db:"image_url"`
	PriceCents  int64     `db:"price_cents"`
	DiscountPct int64     `db:"discount_pct"`
	Stock       int       `db:"stock"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() *product.Product {
	return &product.Product{
		ID:          p.Id,
		Name:        p.Name,
		ImageURL:    p.ImageUrl,
		PriceCents:  money.Cents(p.PriceCents),
		DiscountPct: p.DiscountPct,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var productColumns = []string{
	"id",
	"name",
	"image_url",
	"price_cents",
	"discount_pct",
	"stock",
	"is_active",
	"created_at",
	"updated_at",
}

// GetByID retrieves a single product by id.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	sql, args, err := r.sb.
		Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ProductDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.Name,
		&dal.ImageUrl,
		&dal.PriceCents,
		&dal.DiscountPct,
		&dal.Stock,
		&dal.IsActive,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return dal.ToModel(), nil
}

// Query retrieves products based on filter criteria.
func (r *PostgresProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	query := r.sb.
		Select(productColumns...).
		From("products").
		OrderBy("created_at DESC")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if filter.ActiveOnly {
		query = query.Where(sq.Eq{"is_active": true})
	}

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.ImageUrl,
			&dal.PriceCents,
			&dal.DiscountPct,
			&dal.Stock,
			&dal.IsActive,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// TryDecrementStock subtracts qty from the product's stock in a single
// conditional statement. The WHERE guard makes the claim atomic: two
// concurrent calls can never drive stock below zero.
func (r *PostgresProductRepository) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	sql, args, err := r.sb.
		Update("products").
		Set("stock", sq.Expr("stock - ?", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"stock": qty}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementStock adds qty back onto the product's stock.
func (r *PostgresProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	sql, args, err := r.sb.
		Update("products").
		Set("stock", sq.Expr("stock + ?", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return nil
}
