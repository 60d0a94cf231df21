// Package seo is the connector for the SEO metrics provider. Each data
// family (crawl, competitors, backlinks, keywords, domain metrics) is exposed
// as an independent audit source so one family failing cannot take the
// others down with it.
package seo

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

// Config holds SEO provider credentials and endpoints.
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Timeout  time.Duration
	Location string
	Language string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	login      string
	password   string
	location   string
	language   string
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		login:    cfg.Login,
		password: cfg.Password,
		location: cfg.Location,
		language: cfg.Language,
		logger:   logger.With("source", "seo"),
	}
}

// post sends one task payload and returns the raw provider response.
func (c *Client) post(ctx context.Context, endpoint string, payload []map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s", c.baseURL, endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return raw, nil
}

func (c *Client) OnPageSummary(ctx context.Context, target string, maxPages int) (json.RawMessage, error) {
	return c.post(ctx, "on_page/instant_pages", []map[string]any{{
		"target":          target,
		"max_crawl_pages": maxPages,
	}})
}

func (c *Client) OrganicCompetitors(ctx context.Context, target string) (json.RawMessage, error) {
	return c.post(ctx, "dataforseo_labs/google/competitors_domain/live", []map[string]any{{
		"target":        target,
		"location_name": c.location,
		"language_code": c.language,
	}})
}

func (c *Client) BacklinksSummary(ctx context.Context, target string) (json.RawMessage, error) {
	return c.post(ctx, "backlinks/summary/live", []map[string]any{{
		"target": target,
	}})
}

func (c *Client) RankedKeywords(ctx context.Context, target string) (json.RawMessage, error) {
	return c.post(ctx, "dataforseo_labs/google/ranked_keywords/live", []map[string]any{{
		"target":        target,
		"location_name": c.location,
		"language_code": c.language,
		"limit":         100,
	}})
}

func (c *Client) DomainMetrics(ctx context.Context, target string) (json.RawMessage, error) {
	return c.post(ctx, "dataforseo_labs/google/domain_rank_overview/live", []map[string]any{{
		"target":        target,
		"location_name": c.location,
		"language_code": c.language,
	}})
}

// Source adapts one client call into an independent audit source.
type Source struct {
	key   string
	fetch func(ctx context.Context, target domain.AuditTarget) (json.RawMessage, error)
}

func (s *Source) Key() string { return s.key }

func (s *Source) Fetch(ctx context.Context, target domain.AuditTarget) (json.RawMessage, error) {
	raw, err := s.fetch(ctx, target)
	if err != nil {
		return nil, &domain.ConnectorError{Source: s.key, Err: err}
	}
	return raw, nil
}

// Sources returns the five SEO audit sources backed by the client.
func Sources(c *Client) []*Source {
	return []*Source{
		{key: "crawl", fetch: func(ctx context.Context, t domain.AuditTarget) (json.RawMessage, error) {
			return c.OnPageSummary(ctx, t.Domain, t.MaxCrawlPages)
		}},
		{key: "competitors", fetch: func(ctx context.Context, t domain.AuditTarget) (json.RawMessage, error) {
			return c.OrganicCompetitors(ctx, t.Domain)
		}},
		{key: "backlinks", fetch: func(ctx context.Context, t domain.AuditTarget) (json.RawMessage, error) {
			return c.BacklinksSummary(ctx, t.Domain)
		}},
		{key: "keywords", fetch: func(ctx context.Context, t domain.AuditTarget) (json.RawMessage, error) {
			return c.RankedKeywords(ctx, t.Domain)
		}},
		{key: "domain_metrics", fetch: func(ctx context.Context, t domain.AuditTarget) (json.RawMessage, error) {
			return c.DomainMetrics(ctx, t.Domain)
		}},
	}
}
