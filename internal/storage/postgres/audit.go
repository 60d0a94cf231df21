package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const auditColumns = `
	SELECT id, domain, status, error_message, started_at, completed_at,
	       source_payloads, insights
	FROM audits`

type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

type auditRow struct {
	ID             int64      `db:"id"`
	Domain         string     `db:"domain"`
	Status         string     `db:"status"`
	ErrorMessage   *string    `db:"error_message"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	SourcePayloads []byte     `db:"source_payloads"`
	Insights       []byte     `db:"insights"`
}

func (r *auditRow) toDomain() (*domain.AuditRecord, error) {
	record := &domain.AuditRecord{
		ID:           r.ID,
		Domain:       r.Domain,
		Status:       domain.AuditStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
	if len(r.SourcePayloads) > 0 {
		if err := json.Unmarshal(r.SourcePayloads, &record.SourcePayloads); err != nil {
			return nil, err
		}
	}
	if len(r.Insights) > 0 {
		if err := json.Unmarshal(r.Insights, &record.Insights); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Create inserts a new audit in the running state and returns its id. The
// row exists before any data fetch begins, so every attempted audit is
// queryable even if it crashes later.
func (s *AuditStore) Create(ctx context.Context, target string, startedAt time.Time) (int64, error) {
	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx,
		`INSERT INTO audits (domain, status, started_at) VALUES ($1, $2, $3) RETURNING id`,
		target, domain.AuditRunning, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, &domain.StoreError{Op: "create audit", Err: err}
	}
	return id, nil
}

// SaveResults writes the raw source payloads and derived insights in one
// update.
func (s *AuditStore) SaveResults(ctx context.Context, id int64, payloads map[string]json.RawMessage, insights *domain.AuditInsights) error {
	payloadsJSON, err := json.Marshal(payloads)
	if err != nil {
		return &domain.StoreError{Op: "marshal audit payloads", Err: err}
	}
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return &domain.StoreError{Op: "marshal audit insights", Err: err}
	}

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE audits SET source_payloads = $1, insights = $2 WHERE id = $3`,
		payloadsJSON, insightsJSON, id)
	if err != nil {
		return &domain.StoreError{Op: "save audit results", Err: err}
	}
	return nil
}

// Complete moves the audit from running to completed. The status guard makes
// the transition one-directional: a terminal audit is never re-entered.
func (s *AuditStore) Complete(ctx context.Context, id int64, at time.Time) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE audits SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`,
		domain.AuditCompleted, at, id, domain.AuditRunning)
	if err != nil {
		return &domain.StoreError{Op: "complete audit", Err: err}
	}
	return nil
}

// Fail moves the audit from running to failed and records the error message.
func (s *AuditStore) Fail(ctx context.Context, id int64, message string, at time.Time) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE audits SET status = $1, error_message = $2, completed_at = $3 WHERE id = $4 AND status = $5`,
		domain.AuditFailed, message, at, id, domain.AuditRunning)
	if err != nil {
		return &domain.StoreError{Op: "fail audit", Err: err}
	}
	return nil
}

func (s *AuditStore) Get(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	var row auditRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, auditColumns+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get audit", Err: err}
	}

	record, err := row.toDomain()
	if err != nil {
		return nil, &domain.StoreError{Op: "decode audit", Err: err}
	}
	return record, nil
}

// List returns audits newest-first, optionally filtered by domain.
func (s *AuditStore) List(ctx context.Context, target string) ([]domain.AuditRecord, error) {
	query := auditColumns
	args := []interface{}{}
	if target != "" {
		query += ` WHERE domain = $1`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC`

	var rows []auditRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "list audits", Err: err}
	}

	records := make([]domain.AuditRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toDomain()
		if err != nil {
			return nil, &domain.StoreError{Op: "decode audit", Err: err}
		}
		records = append(records, *record)
	}
	return records, nil
}
