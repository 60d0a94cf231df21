package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

type ProductStore struct {
	db *sqlx.DB
}

func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

// Upsert inserts or replaces the product keyed by (site_name, product_key).
func (s *ProductStore) Upsert(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			site_name, product_key, name, description, price, currency,
			sku, stock, category, images, active, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (site_name, product_key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			sku = EXCLUDED.sku,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			images = EXCLUDED.images,
			active = EXCLUDED.active,
			last_updated = now()`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		product.SiteName,
		product.ProductKey,
		product.Name,
		product.Description,
		product.Price,
		product.Currency,
		product.SKU,
		product.Stock,
		product.Category,
		product.Images,
		product.Active,
	)
	if err != nil {
		return &domain.StoreError{Op: "upsert product", Err: err}
	}
	return nil
}

func (s *ProductStore) ListBySite(ctx context.Context, siteName string) ([]domain.Product, error) {
	query := `
		SELECT id, site_name, product_key, name, description, price, currency,
		       sku, stock, category, images, active, last_updated
		FROM products
		WHERE site_name = $1
		ORDER BY product_key`

	var products []domain.Product
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &products, query, siteName)
	if err != nil {
		return nil, &domain.StoreError{Op: "list products", Err: err}
	}
	return products, nil
}
