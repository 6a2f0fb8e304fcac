package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devispro/devispro/internal/shared"
)

// Repository provides read access to the product catalog.
type Repository interface {
	Get(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const getProductQuery = `
SELECT code, designation, uom, COALESCE(conditioning, ''), yield_per_unit,
       layers_count, security_percent, status
FROM catalog_products
WHERE code = $1`

const getProductPricesQuery = `
SELECT tier, fix_price
FROM catalog_product_prices
WHERE product_code = $1`

func (r *repository) Get(ctx context.Context, code string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, getProductQuery, code).Scan(
		&p.Code, &p.Designation, &p.UOM, &p.Conditioning,
		&p.YieldPerUnit, &p.LayersCount, &p.DefaultSecurityPercent, &p.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get product %s: %w", code, err)
	}

	rows, err := r.pool.Query(ctx, getProductPricesQuery, code)
	if err != nil {
		return nil, fmt.Errorf("catalog: get prices %s: %w", code, err)
	}
	defer rows.Close()

	p.Prices = make(map[PriceTier]float64)
	for rows.Next() {
		var tier string
		var price float64
		if err := rows.Scan(&tier, &price); err != nil {
			return nil, fmt.Errorf("catalog: scan price: %w", err)
		}
		p.Prices[PriceTier(tier)] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate prices: %w", err)
	}
	return &p, nil
}

const listProductsQuery = `
SELECT code, designation, uom, COALESCE(conditioning, ''), yield_per_unit,
       layers_count, security_percent, status
FROM catalog_products
WHERE status = 'Active'
ORDER BY code`

func (r *repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.Code, &p.Designation, &p.UOM, &p.Conditioning,
			&p.YieldPerUnit, &p.LayersCount, &p.DefaultSecurityPercent, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
