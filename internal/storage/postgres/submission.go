package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

const submissionColumns = `
	SELECT id, site_name, form_id, form_title, submitted_at, data,
	       submitter_name, submitter_email, delivered, last_updated
	FROM form_submissions`

type SubmissionStore struct {
	db *sqlx.DB
}

func NewSubmissionStore(db *sqlx.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Insert appends a new submission and returns its generated id. Submissions
// are never deduplicated here; repeated ingestion of the same provider event
// produces a new row.
func (s *SubmissionStore) Insert(ctx context.Context, sub *domain.FormSubmission) (int64, error) {
	query := `
		INSERT INTO form_submissions (
			site_name, form_id, form_title, submitted_at, data,
			submitter_name, submitter_email, delivered, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, now())
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		sub.SiteName,
		sub.FormID,
		sub.FormTitle,
		sub.SubmittedAt,
		sub.Data,
		sub.SubmitterName,
		sub.SubmitterEmail,
	).Scan(&id)
	if err != nil {
		return 0, &domain.StoreError{Op: "insert submission", Err: err}
	}
	return id, nil
}

// ListUndelivered returns every submission with delivered = false, oldest
// first. siteName narrows the result when non-empty.
func (s *SubmissionStore) ListUndelivered(ctx context.Context, siteName string) ([]domain.FormSubmission, error) {
	query := submissionColumns + ` WHERE NOT delivered`
	args := []interface{}{}
	if siteName != "" {
		query += ` AND site_name = $1`
		args = append(args, siteName)
	}
	query += ` ORDER BY id`

	var subs []domain.FormSubmission
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &subs, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "list undelivered submissions", Err: err}
	}
	return subs, nil
}

// MarkDelivered flips the delivered flag to true. The flag is monotonic: the
// update is a compare-and-set on delivered = false and there is no operation
// that sets it back.
func (s *SubmissionStore) MarkDelivered(ctx context.Context, id int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE form_submissions SET delivered = TRUE, last_updated = now()
		 WHERE id = $1 AND NOT delivered`, id)
	if err != nil {
		return &domain.StoreError{Op: "mark submission delivered", Err: err}
	}
	return nil
}
