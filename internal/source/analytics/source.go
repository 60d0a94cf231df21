// Package analytics is the web-analytics audit source. It is optional: when
// the audit target carries no analytics property id the source reports
// nothing rather than an error.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cms_syncer/internal/domain"
)

const SourceKey = "analytics"

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Source struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		logger:  logger.With("source", SourceKey),
	}
}

func (s *Source) Key() string { return SourceKey }

// Fetch runs the standard report set against the target's analytics
// property. A nil, nil return means the source does not apply to this
// target and is skipped by the orchestrator.
func (s *Source) Fetch(ctx context.Context, target domain.AuditTarget) (json.RawMessage, error) {
	if target.AnalyticsPropertyID == "" {
		return nil, nil
	}

	reports := map[string]json.RawMessage{}
	for _, name := range []string{"pages", "landing_pages", "devices", "countries", "traffic_sources"} {
		raw, err := s.runReport(ctx, target.AnalyticsPropertyID, name)
		if err != nil {
			return nil, &domain.ConnectorError{Source: SourceKey, Err: err}
		}
		reports[name] = raw
	}

	payload, err := json.Marshal(reports)
	if err != nil {
		return nil, &domain.ConnectorError{Source: SourceKey, Err: err}
	}
	return payload, nil
}

func (s *Source) runReport(ctx context.Context, propertyID, report string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"property": propertyID,
		"report":   report,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/properties/%s:runReport", s.baseURL, propertyID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report %s: unexpected status %d", report, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return raw, nil
}
