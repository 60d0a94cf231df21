package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"time"

	"cms_syncer/internal/domain"
)

type SiteStore interface {
	Upsert(ctx context.Context, site *domain.Site) error
	List(ctx context.Context) ([]domain.Site, error)
}

type SubmissionStore interface {
	Insert(ctx context.Context, sub *domain.FormSubmission) (int64, error)
	ListUndelivered(ctx context.Context, siteName string) ([]domain.FormSubmission, error)
	MarkDelivered(ctx context.Context, id int64) error
}

type OrderStore interface {
	Upsert(ctx context.Context, order *domain.EcommerceOrder) (int64, error)
	ListUndelivered(ctx context.Context, siteName string) ([]domain.EcommerceOrder, error)
	MarkDelivered(ctx context.Context, id int64) error
}

type ProductStore interface {
	Upsert(ctx context.Context, product *domain.Product) error
}

type DeliveryLog interface {
	Append(ctx context.Context, entry *domain.DeliveryLogEntry) (int64, error)
}

type AuditStore interface {
	Create(ctx context.Context, target string, startedAt time.Time) (int64, error)
	SaveResults(ctx context.Context, id int64, payloads map[string]json.RawMessage, insights *domain.AuditInsights) error
	Complete(ctx context.Context, id int64, at time.Time) error
	Fail(ctx context.Context, id int64, message string, at time.Time) error
	Get(ctx context.Context, id int64) (*domain.AuditRecord, error)
	List(ctx context.Context, target string) ([]domain.AuditRecord, error)
}

// CMSSource is the provider connector. It returns provider-native payloads;
// normalization happens in the pipeline.
type CMSSource interface {
	ID() string
	ListSites(ctx context.Context) ([]map[string]any, error)
	ListFormSubmissions(ctx context.Context, siteName string) ([]map[string]any, error)
	ListOrders(ctx context.Context, siteName string) ([]map[string]any, error)
	ListProducts(ctx context.Context, siteName string) ([]map[string]any, error)
}

// AuditSource is one independent audit data provider. A nil payload with a
// nil error means the source does not apply to the target.
type AuditSource interface {
	Key() string
	Fetch(ctx context.Context, target domain.AuditTarget) (json.RawMessage, error)
}

// Deliverer performs one outbound notification attempt per invocation. It
// never mutates delivery flags; that is the driver's job.
type Deliverer interface {
	Deliver(ctx context.Context, eventType string, record any) domain.DeliveryResult
}

// EventPublisher mirrors record events onto a message bus. Optional.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, record any) error
	Close() error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
