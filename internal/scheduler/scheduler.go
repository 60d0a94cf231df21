package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cms_syncer/internal/domain"
)

// Syncer runs one ingestion cycle.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// Notifier runs one notification cycle.
type Notifier interface {
	ProcessPending(ctx context.Context) (*domain.NotifyStats, error)
}

// Scheduler drives the ingestion and notification cycles on independent
// tickers. The two loops run concurrently; each cycle is serial within
// itself and bounded by a per-run timeout.
type Scheduler struct {
	syncer         Syncer
	notifier       Notifier
	syncInterval   time.Duration
	notifyInterval time.Duration
	runTimeout     time.Duration
	logger         *slog.Logger
}

func NewScheduler(syncer Syncer, notifier Notifier, syncInterval, notifyInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:         syncer,
		notifier:       notifier,
		syncInterval:   syncInterval,
		notifyInterval: notifyInterval,
		runTimeout:     5 * time.Minute,
		logger:         logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"sync_interval", s.syncInterval,
		"notify_interval", s.notifyInterval,
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.loop(ctx, s.syncInterval, s.runSync)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, s.notifyInterval, s.runNotify)
	}()

	wg.Wait()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, run func(ctx context.Context)) {
	run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(runCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
	}
}

func (s *Scheduler) runNotify(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.notifier.ProcessPending(runCtx); err != nil {
		s.logger.Error("notification cycle failed", "error", err)
	}
}
