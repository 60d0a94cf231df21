package duda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"cms_syncer/internal/domain"
)

const SourceID = "duda"

// Config holds CMS API configuration.
type Config struct {
	BaseURL        string
	User           string
	Password       string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source is the CMS connector. It returns provider-native payloads; mapping
// into canonical records is the normalizer's job.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	user           string
	password       string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		user:           cfg.User,
		password:       cfg.Password,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

// ListSites pages through all sites of the account.
func (s *Source) ListSites(ctx context.Context) ([]map[string]any, error) {
	var all []map[string]any

	for offset := 0; ; offset += s.pageSize {
		endpoint := fmt.Sprintf("sites/multiscreen?limit=%d&offset=%d", s.pageSize, offset)

		var resp struct {
			Sites []map[string]any `json:"sites"`
		}
		if err := s.get(ctx, endpoint, &resp); err != nil {
			return nil, &domain.ConnectorError{Source: SourceID, Err: err}
		}

		all = append(all, resp.Sites...)

		s.logger.Debug("fetched sites page", "offset", offset, "count", len(resp.Sites))

		if len(resp.Sites) < s.pageSize {
			break
		}
	}

	return all, nil
}

// ListFormSubmissions fetches form submissions for one site. The provider
// returns either a bare array or an object with a results key.
func (s *Source) ListFormSubmissions(ctx context.Context, siteName string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("sites/multiscreen/%s/forms", url.PathEscape(siteName))

	var raw json.RawMessage
	if err := s.get(ctx, endpoint, &raw); err != nil {
		return nil, &domain.ConnectorError{Source: SourceID, Err: err}
	}
	return decodeList(raw)
}

// ListOrders fetches e-commerce orders for one site.
func (s *Source) ListOrders(ctx context.Context, siteName string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("sites/multiscreen/%s/ecommerce/orders?limit=%d", url.PathEscape(siteName), s.pageSize)

	var raw json.RawMessage
	if err := s.get(ctx, endpoint, &raw); err != nil {
		return nil, &domain.ConnectorError{Source: SourceID, Err: err}
	}
	return decodeList(raw)
}

// ListProducts fetches the product catalog for one site.
func (s *Source) ListProducts(ctx context.Context, siteName string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("sites/multiscreen/%s/ecommerce/products?limit=%d", url.PathEscape(siteName), s.pageSize)

	var raw json.RawMessage
	if err := s.get(ctx, endpoint, &raw); err != nil {
		return nil, &domain.ConnectorError{Source: SourceID, Err: err}
	}
	return decodeList(raw)
}

func (s *Source) get(ctx context.Context, endpoint string, out any) error {
	reqURL := fmt.Sprintf("%s/%s", s.baseURL, endpoint)

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.doRequest(ctx, reqURL, out)
		if err == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth(s.user, s.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// decodeList accepts either a JSON array or an object wrapping the array
// under "results".
func decodeList(raw json.RawMessage) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &domain.ConnectorError{Source: SourceID, Err: fmt.Errorf("decode list: %w", err)}
	}
	return wrapped.Results, nil
}
