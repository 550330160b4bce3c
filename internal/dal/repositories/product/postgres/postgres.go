package postgresrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomlabs/order-svc/internal/dal/postgres"
	"github.com/ecomlabs/order-svc/internal/service/models/currency"
	"github.com/ecomlabs/order-svc/internal/service/models/product"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id            int64     `db:"id"`
	Title         string    `db:"title"`
	Url           string    `db:"url"`
	PriceCents    int64     `db:"price_cents"`
	PriceCurrency string    `db:"price_currency"`
	Quantity      int       `db:"quantity"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() (*product.Product, error) {
	cur, err := currency.ParseCurrency(p.PriceCurrency)
	if err != nil {
		return nil, err
	}

	return &product.Product{
		ID:            p.Id,
		Title:         p.Title,
		Url:           p.Url,
		PriceCents:    p.PriceCents,
		PriceCurrency: cur,
		Quantity:      p.Quantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn postgres.GenericConn
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn postgres.GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
	}
}

// FindAllByIDs batch-resolves products by their ids. Rows are locked with
// FOR UPDATE so concurrent order creations cannot oversell the same stock:
// outside a transaction the lock is released immediately and the query
// degrades to a plain read.
func (r *PostgresProductRepository) FindAllByIDs(
	ctx context.Context,
	ids []int64,
) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	sql := `
		SELECT
			id,
			title,
			url,
			price_cents,
			price_currency,
			quantity,
			created_at,
			updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.conn.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		err := rows.Scan(
			&dal.Id,
			&dal.Title,
			&dal.Url,
			&dal.PriceCents,
			&dal.PriceCurrency,
			&dal.Quantity,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert product dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// DecrementQuantities applies stock deltas. The condition quantity >= $2
// makes the update a no-op for oversold rows, which is reported as
// product.ErrInsufficientStock.
func (r *PostgresProductRepository) DecrementQuantities(
	ctx context.Context,
	deltas []product.StockDelta,
) error {
	sql := `
		UPDATE products
		SET quantity = quantity - $2,
		    updated_at = now()
		WHERE id = $1 AND quantity >= $2
	`

	for _, delta := range deltas {
		tag, err := r.conn.Exec(ctx, sql, delta.ProductID, delta.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement product %d: %w", delta.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %d: %w", delta.ProductID, product.ErrInsufficientStock)
		}
	}

	return nil
}
