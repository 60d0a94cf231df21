package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

const orderColumns = `
	SELECT id, order_key, site_name, order_number, ordered_at,
	       customer_name, customer_email, total, currency, status,
	       items, shipping, billing, delivered, last_updated
	FROM ecommerce_orders`

type OrderStore struct {
	db *sqlx.DB
}

func NewOrderStore(db *sqlx.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Upsert inserts or replaces the order keyed by order_key. The delivered
// flag is deliberately absent from the update list so a re-ingested order
// can never have its delivery state reset.
func (s *OrderStore) Upsert(ctx context.Context, order *domain.EcommerceOrder) (int64, error) {
	query := `
		INSERT INTO ecommerce_orders (
			order_key, site_name, order_number, ordered_at,
			customer_name, customer_email, total, currency, status,
			items, shipping, billing, delivered, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, now())
		ON CONFLICT (order_key) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			order_number = EXCLUDED.order_number,
			ordered_at = EXCLUDED.ordered_at,
			customer_name = EXCLUDED.customer_name,
			customer_email = EXCLUDED.customer_email,
			total = EXCLUDED.total,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			items = EXCLUDED.items,
			shipping = EXCLUDED.shipping,
			billing = EXCLUDED.billing,
			last_updated = now()
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		order.OrderKey,
		order.SiteName,
		order.OrderNumber,
		order.OrderedAt,
		order.CustomerName,
		order.CustomerEmail,
		order.Total,
		order.Currency,
		order.Status,
		order.Items,
		order.Shipping,
		order.Billing,
	).Scan(&id)
	if err != nil {
		return 0, &domain.StoreError{Op: "upsert order", Err: err}
	}
	return id, nil
}

func (s *OrderStore) ListUndelivered(ctx context.Context, siteName string) ([]domain.EcommerceOrder, error) {
	query := orderColumns + ` WHERE NOT delivered`
	args := []interface{}{}
	if siteName != "" {
		query += ` AND site_name = $1`
		args = append(args, siteName)
	}
	query += ` ORDER BY id`

	var orders []domain.EcommerceOrder
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &orders, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "list undelivered orders", Err: err}
	}
	return orders, nil
}

// MarkDelivered is a compare-and-set on delivered = false, same contract as
// SubmissionStore.MarkDelivered.
func (s *OrderStore) MarkDelivered(ctx context.Context, id int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE ecommerce_orders SET delivered = TRUE, last_updated = now()
		 WHERE id = $1 AND NOT delivered`, id)
	if err != nil {
		return &domain.StoreError{Op: "mark order delivered", Err: err}
	}
	return nil
}
