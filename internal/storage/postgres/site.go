package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"cms_syncer/internal/domain"
)

const siteColumns = `
	SELECT site_name, title, domain, template_id, published,
	       created_date, last_published_date, store_enabled, blog_enabled,
	       metadata, last_updated
	FROM sites`

type SiteStore struct {
	db *sqlx.DB
}

func NewSiteStore(db *sqlx.DB) *SiteStore {
	return &SiteStore{db: db}
}

// Upsert replaces the full row for the site, last-writer-wins. Calling it
// twice with identical input changes nothing but last_updated.
func (s *SiteStore) Upsert(ctx context.Context, site *domain.Site) error {
	query := `
		INSERT INTO sites (
			site_name, title, domain, template_id, published,
			created_date, last_published_date, store_enabled, blog_enabled,
			metadata, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (site_name) DO UPDATE SET
			title = EXCLUDED.title,
			domain = EXCLUDED.domain,
			template_id = EXCLUDED.template_id,
			published = EXCLUDED.published,
			created_date = EXCLUDED.created_date,
			last_published_date = EXCLUDED.last_published_date,
			store_enabled = EXCLUDED.store_enabled,
			blog_enabled = EXCLUDED.blog_enabled,
			metadata = EXCLUDED.metadata,
			last_updated = now()`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		site.SiteName,
		site.Title,
		site.Domain,
		site.TemplateID,
		site.Published,
		site.CreatedDate,
		site.LastPublishedDate,
		site.StoreEnabled,
		site.BlogEnabled,
		site.Metadata,
	)
	if err != nil {
		return &domain.StoreError{Op: "upsert site", Err: err}
	}
	return nil
}

func (s *SiteStore) Get(ctx context.Context, siteName string) (*domain.Site, error) {
	var site domain.Site
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &site,
		siteColumns+` WHERE site_name = $1`, siteName)
	if err != nil {
		return nil, &domain.StoreError{Op: "get site", Err: err}
	}
	return &site, nil
}

func (s *SiteStore) List(ctx context.Context) ([]domain.Site, error) {
	var sites []domain.Site
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &sites,
		siteColumns+` ORDER BY last_updated DESC`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list sites", Err: err}
	}
	return sites, nil
}
