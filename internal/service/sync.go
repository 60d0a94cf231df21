package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cms_syncer/internal/config"
	"cms_syncer/internal/domain"
	"cms_syncer/internal/normalize"
)

// Event types carried on webhook envelopes and bus messages.
const (
	EventFormSubmission = "new_form_submission"
	EventOrder          = "new_ecommerce_order"
	EventDailySummary   = "daily_stats_summary"
)

// SyncService runs one ingestion cycle: sites first, then per-site
// submissions, orders and products. One bad record is logged and skipped;
// the batch always continues.
type SyncService struct {
	source      CMSSource
	sites       SiteStore
	submissions SubmissionStore
	orders      OrderStore
	products    ProductStore
	txManager   TransactionManager
	publisher   EventPublisher
	logger      *slog.Logger
	config      config.SyncConfig
}

func NewSyncService(
	source CMSSource,
	sites SiteStore,
	submissions SubmissionStore,
	orders OrderStore,
	products ProductStore,
	txManager TransactionManager,
	publisher EventPublisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:      source,
		sites:       sites,
		submissions: submissions,
		orders:      orders,
		products:    products,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger.With("source", source.ID()),
		config:      cfg,
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	s.logger.Info("starting sync")

	stats := &domain.SyncStats{}

	synced, err := s.syncSites(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("sync sites: %w", err)
	}

	for i := range synced {
		site := &synced[i]

		s.syncSubmissions(ctx, site.SiteName, stats)

		if site.StoreEnabled {
			s.syncOrders(ctx, site.SiteName, stats)
			s.syncProducts(ctx, site.SiteName, stats)
		} else {
			s.logger.Debug("store not enabled, skipping ecommerce", "site", site.SiteName)
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"sites", stats.Sites,
		"submissions", stats.Submissions,
		"orders", stats.Orders,
		"products", stats.Products,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// syncSites ingests all sites and returns the ones that landed. Dependent
// records are only fetched for sites whose row exists.
func (s *SyncService) syncSites(ctx context.Context, stats *domain.SyncStats) ([]domain.Site, error) {
	raw, err := s.source.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetched sites from source", "count", len(raw))

	var synced []domain.Site
	for _, payload := range raw {
		site, err := normalize.Site(payload)
		if err != nil {
			s.logger.Warn("skipping site", "error", err)
			stats.Skipped++
			continue
		}

		if err := s.sites.Upsert(ctx, site); err != nil {
			s.logger.Error("failed to store site", "site", site.SiteName, "error", err)
			stats.Errors++
			continue
		}

		stats.Sites++
		synced = append(synced, *site)
	}

	return synced, nil
}

func (s *SyncService) syncSubmissions(ctx context.Context, siteName string, stats *domain.SyncStats) {
	raw, err := s.source.ListFormSubmissions(ctx, siteName)
	if err != nil {
		s.logger.Error("failed to fetch submissions", "site", siteName, "error", err)
		stats.Errors++
		return
	}

	for _, payload := range raw {
		sub, err := normalize.Submission(siteName, payload, time.Now().UTC())
		if err != nil {
			s.logger.Warn("skipping submission", "site", siteName, "error", err)
			stats.Skipped++
			continue
		}

		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			id, err := s.submissions.Insert(txCtx, sub)
			if err != nil {
				return err
			}
			sub.ID = id
			return nil
		})
		if err != nil {
			s.logger.Error("failed to store submission", "site", siteName, "error", err)
			stats.Errors++
			continue
		}

		stats.Submissions++
		s.publish(ctx, EventFormSubmission, sub)
	}
}

func (s *SyncService) syncOrders(ctx context.Context, siteName string, stats *domain.SyncStats) {
	raw, err := s.source.ListOrders(ctx, siteName)
	if err != nil {
		s.logger.Error("failed to fetch orders", "site", siteName, "error", err)
		stats.Errors++
		return
	}

	for _, payload := range raw {
		order, err := normalize.Order(siteName, payload, time.Now().UTC())
		if err != nil {
			s.logger.Warn("skipping order", "site", siteName, "error", err)
			stats.Skipped++
			continue
		}

		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			id, err := s.orders.Upsert(txCtx, order)
			if err != nil {
				return err
			}
			order.ID = id
			return nil
		})
		if err != nil {
			s.logger.Error("failed to store order", "site", siteName, "order", order.OrderKey, "error", err)
			stats.Errors++
			continue
		}

		stats.Orders++
		s.publish(ctx, EventOrder, order)
	}
}

func (s *SyncService) syncProducts(ctx context.Context, siteName string, stats *domain.SyncStats) {
	raw, err := s.source.ListProducts(ctx, siteName)
	if err != nil {
		s.logger.Error("failed to fetch products", "site", siteName, "error", err)
		stats.Errors++
		return
	}

	for _, payload := range raw {
		product, err := normalize.Product(siteName, payload)
		if err != nil {
			s.logger.Warn("skipping product", "site", siteName, "error", err)
			stats.Skipped++
			continue
		}

		if err := s.products.Upsert(ctx, product); err != nil {
			s.logger.Error("failed to store product", "site", siteName, "product", product.ProductKey, "error", err)
			stats.Errors++
			continue
		}

		stats.Products++
	}
}

// publish mirrors the record onto the event bus when one is configured. Bus
// failures are logged, never fatal: webhook delivery state lives in the
// store, not here.
func (s *SyncService) publish(ctx context.Context, eventType string, record any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, record); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
