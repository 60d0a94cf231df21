// Package searchconsole is the search-performance audit source.
package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cms_syncer/internal/domain"
)

const SourceKey = "search_console"

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

// Fetch queries search analytics grouped by page, query, country and device
// for the target domain and bundles them under one payload.
func (s *Source) Fetch(ctx context.Context, target domain.AuditTarget) (json.RawMessage, error) {
	siteURL := normalizeSiteURL(target.Domain)

	reports := map[string]json.RawMessage{}
	for _, dimension := range []string{"page", "query", "country", "device"} {
		raw, err := s.query(ctx, siteURL, dimension)
		if err != nil {
			return nil, &domain.ConnectorError{Source: SourceKey, Err: err}
		}
		reports[dimension] = raw
	}

	payload, err := json.Marshal(reports)
	if err != nil {
		return nil, &domain.ConnectorError{Source: SourceKey, Err: err}
	}
	return payload, nil
}

func (s *Source) query(ctx context.Context, siteURL, dimension string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"dimensions": []string{dimension},
		"rowLimit":   100,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/sites/%s/searchAnalytics/query", s.baseURL, url.PathEscape(siteURL)),
		bytes.NewReader(body))
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
		return nil, fmt.Errorf("dimension %s: unexpected status %d", dimension, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return raw, nil
}

// normalizeSiteURL maps a bare domain onto the provider's domain-property
// notation.
func normalizeSiteURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "sc-domain:" + target
}
