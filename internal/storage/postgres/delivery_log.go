package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

type DeliveryLogStore struct {
	db *sqlx.DB
}

func NewDeliveryLogStore(db *sqlx.DB) *DeliveryLogStore {
	return &DeliveryLogStore{db: db}
}

// Append writes one immutable delivery log row and returns its id.
func (s *DeliveryLogStore) Append(ctx context.Context, entry *domain.DeliveryLogEntry) (int64, error) {
	query := `
		INSERT INTO delivery_log (
			event_type, destination, payload, response_code,
			response_body, success, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		entry.EventType,
		entry.Destination,
		entry.Payload,
		entry.ResponseCode,
		entry.ResponseBody,
		entry.Success,
		entry.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, &domain.StoreError{Op: "append delivery log", Err: err}
	}
	return id, nil
}

func (s *DeliveryLogStore) ListRecent(ctx context.Context, limit int) ([]domain.DeliveryLogEntry, error) {
	query := `
		SELECT id, event_type, destination, payload, response_code,
		       response_body, success, timestamp
		FROM delivery_log
		ORDER BY id DESC
		LIMIT $1`

	var entries []domain.DeliveryLogEntry
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &entries, query, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "list delivery log", Err: err}
	}
	return entries, nil
}
