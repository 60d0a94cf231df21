package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"cms_syncer/internal/domain"
)

// AuditService coordinates one multi-source audit run. Source-level failure
// is isolated: a provider being down degrades the audit's content, never its
// completion. Only an orchestration-level fault (store unreachable,
// programming error) produces a failed audit.
type AuditService struct {
	store   AuditStore
	sources []AuditSource
	logger  *slog.Logger
}

func NewAuditService(store AuditStore, sources []AuditSource, logger *slog.Logger) *AuditService {
	return &AuditService{
		store:   store,
		sources: sources,
		logger:  logger.With("component", "audit"),
	}
}

// RunAudit creates the audit record before any fetch begins, fans out to
// every source, derives insights from whatever came back, persists payloads
// and insights in one write, and finalizes the status. The returned record
// reflects the stored terminal state.
func (s *AuditService) RunAudit(ctx context.Context, target domain.AuditTarget) (*domain.AuditRecord, error) {
	id, err := s.store.Create(ctx, target.Domain, time.Now().UTC())
	if err != nil {
		// Nothing was recorded; there is no row to flip to failed.
		return nil, &domain.OrchestrationError{Phase: "start", Err: err}
	}

	s.logger.Info("audit started", "audit_id", id, "domain", target.Domain)

	payloads := s.fetchAll(ctx, target)
	insights := deriveInsights(payloads)

	if err := s.store.SaveResults(ctx, id, payloads, insights); err != nil {
		return nil, s.fail(ctx, id, "persist", err)
	}

	if err := s.store.Complete(ctx, id, time.Now().UTC()); err != nil {
		return nil, s.fail(ctx, id, "finalize", err)
	}

	s.logger.Info("audit completed", "audit_id", id, "domain", target.Domain, "sources", len(payloads))

	return s.store.Get(ctx, id)
}

// fetchAll invokes every source individually. A source's failure produces a
// "<key>_error" payload entry instead of data and never aborts the remaining
// sources.
func (s *AuditService) fetchAll(ctx context.Context, target domain.AuditTarget) map[string]json.RawMessage {
	payloads := make(map[string]json.RawMessage, len(s.sources))

	for _, source := range s.sources {
		raw, err := source.Fetch(ctx, target)
		if err != nil {
			s.logger.Warn("audit source failed",
				"source", source.Key(),
				"domain", target.Domain,
				"error", err,
			)
			payloads[source.Key()+"_error"] = errorPayload(err)
			continue
		}
		if raw == nil {
			s.logger.Debug("audit source not applicable", "source", source.Key())
			continue
		}
		payloads[source.Key()] = raw
	}

	return payloads
}

// fail durably records the failure, then surfaces it so the caller is still
// informed synchronously.
func (s *AuditService) fail(ctx context.Context, id int64, phase string, cause error) error {
	orchErr := &domain.OrchestrationError{Phase: phase, Err: cause}

	if err := s.store.Fail(ctx, id, orchErr.Error(), time.Now().UTC()); err != nil {
		s.logger.Error("failed to record audit failure", "audit_id", id, "error", err)
	}

	return orchErr
}

func (s *AuditService) GetAudit(ctx context.Context, id int64) (*domain.AuditRecord, error) {
	return s.store.Get(ctx, id)
}

// ListAudits returns audits newest-first, optionally filtered by domain.
func (s *AuditService) ListAudits(ctx context.Context, target string) ([]domain.AuditRecord, error) {
	return s.store.List(ctx, target)
}

// errorPayload stores the underlying provider message, not the connector
// wrapping.
func errorPayload(err error) json.RawMessage {
	var connErr *domain.ConnectorError
	if errors.As(err, &connErr) {
		err = connErr.Err
	}
	msg, _ := json.Marshal(err.Error())
	return msg
}
