package service

import (
	"context"
	"log/slog"
	"time"

	"cms_syncer/internal/domain"
)

// NotifyService is the notification cycle driver: it reads undelivered
// records from the store, attempts delivery once each, and marks a record
// delivered only on confirmed success. Failures stay undelivered and are
// retried on the next cycle.
type NotifyService struct {
	submissions SubmissionStore
	orders      OrderStore
	sites       SiteStore
	deliverer   Deliverer
	logger      *slog.Logger
}

func NewNotifyService(
	submissions SubmissionStore,
	orders OrderStore,
	sites SiteStore,
	deliverer Deliverer,
	logger *slog.Logger,
) *NotifyService {
	return &NotifyService{
		submissions: submissions,
		orders:      orders,
		sites:       sites,
		deliverer:   deliverer,
		logger:      logger.With("component", "notify"),
	}
}

func (s *NotifyService) ProcessPending(ctx context.Context) (*domain.NotifyStats, error) {
	startTime := time.Now()
	stats := &domain.NotifyStats{}

	subs, err := s.submissions.ListUndelivered(ctx, "")
	if err != nil {
		return nil, err
	}

	for i := range subs {
		sub := &subs[i]
		result := s.deliverer.Deliver(ctx, EventFormSubmission, sub)
		switch {
		case result.Success:
			if err := s.submissions.MarkDelivered(ctx, sub.ID); err != nil {
				s.logger.Error("failed to mark submission delivered", "id", sub.ID, "error", err)
				stats.Failures++
				continue
			}
			stats.SubmissionsSent++
		case result.Unconfigured:
			// Nothing to do; the record stays pending until a
			// destination is configured.
		default:
			stats.Failures++
		}
	}

	orders, err := s.orders.ListUndelivered(ctx, "")
	if err != nil {
		return stats, err
	}

	for i := range orders {
		order := &orders[i]
		result := s.deliverer.Deliver(ctx, EventOrder, order)
		switch {
		case result.Success:
			if err := s.orders.MarkDelivered(ctx, order.ID); err != nil {
				s.logger.Error("failed to mark order delivered", "id", order.ID, "error", err)
				stats.Failures++
				continue
			}
			stats.OrdersSent++
		case result.Unconfigured:
		default:
			stats.Failures++
		}
	}

	stats.Duration = time.Since(startTime)

	if stats.SubmissionsSent > 0 || stats.OrdersSent > 0 || stats.Failures > 0 {
		s.logger.Info("notification cycle completed",
			"submissions_sent", stats.SubmissionsSent,
			"orders_sent", stats.OrdersSent,
			"failures", stats.Failures,
			"duration", stats.Duration,
		)
	}

	return stats, nil
}

// dailySummary is the payload of the daily stats webhook.
type dailySummary struct {
	Date    string        `json:"date"`
	Summary summaryCounts `json:"summary"`
	Sites   []summarySite `json:"sites"`
}

type summaryCounts struct {
	TotalSites         int `json:"total_sites"`
	PublishedSites     int `json:"published_sites"`
	SitesWithStore     int `json:"sites_with_store"`
	SitesWithBlog      int `json:"sites_with_blog"`
	PendingSubmissions int `json:"pending_submissions"`
	PendingOrders      int `json:"pending_orders"`
}

type summarySite struct {
	SiteName  string `json:"site_name"`
	Title     string `json:"title"`
	Domain    string `json:"domain"`
	Published bool   `json:"published"`
}

// SendDailySummary delivers an account-level stats digest. Like every other
// event type it is a no-op when no destination is configured.
func (s *NotifyService) SendDailySummary(ctx context.Context) error {
	sites, err := s.sites.List(ctx)
	if err != nil {
		return err
	}
	subs, err := s.submissions.ListUndelivered(ctx, "")
	if err != nil {
		return err
	}
	orders, err := s.orders.ListUndelivered(ctx, "")
	if err != nil {
		return err
	}

	summary := dailySummary{
		Date: time.Now().UTC().Format("2006-01-02"),
		Summary: summaryCounts{
			TotalSites:         len(sites),
			PendingSubmissions: len(subs),
			PendingOrders:      len(orders),
		},
	}
	for _, site := range sites {
		if site.Published {
			summary.Summary.PublishedSites++
		}
		if site.StoreEnabled {
			summary.Summary.SitesWithStore++
		}
		if site.BlogEnabled {
			summary.Summary.SitesWithBlog++
		}
	}
	limit := len(sites)
	if limit > 10 {
		limit = 10
	}
	for _, site := range sites[:limit] {
		summary.Sites = append(summary.Sites, summarySite{
			SiteName:  site.SiteName,
			Title:     site.Title,
			Domain:    site.Domain,
			Published: site.Published,
		})
	}

	result := s.deliverer.Deliver(ctx, EventDailySummary, summary)
	if !result.Success && !result.Unconfigured {
		return &domain.DeliveryError{EventType: EventDailySummary, Code: result.ResponseCode}
	}
	return nil
}
