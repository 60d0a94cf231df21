package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cms_syncer/internal/config"
	"cms_syncer/internal/domain"
	"cms_syncer/internal/service/mocks"
)

type SyncServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source      *mocks.MockCMSSource
	sites       *mocks.MockSiteStore
	submissions *mocks.MockSubmissionStore
	orders      *mocks.MockOrderStore
	products    *mocks.MockProductStore
	txManager   *mocks.MockTransactionManager
	publisher   *mocks.MockEventPublisher

	service *SyncService
	cfg     config.SyncConfig
	logger  *slog.Logger
}

func (s *SyncServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockCMSSource(s.ctrl)
	s.sites = mocks.NewMockSiteStore(s.ctrl)
	s.submissions = mocks.NewMockSubmissionStore(s.ctrl)
	s.orders = mocks.NewMockOrderStore(s.ctrl)
	s.products = mocks.NewMockProductStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockEventPublisher(s.ctrl)

	s.cfg = config.SyncConfig{
		Interval:       15 * time.Minute,
		NotifyInterval: time.Minute,
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().ID().Return("test-cms").AnyTimes()

	s.service = NewSyncService(
		s.source,
		s.sites,
		s.submissions,
		s.orders,
		s.products,
		s.txManager,
		s.publisher,
		s.logger,
		s.cfg,
	)
}

func (s *SyncServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}

func (s *SyncServiceTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *SyncServiceTestSuite) TestSync_FullCycle() {
	ctx := context.Background()

	sitePayloads := []map[string]any{
		{"site_name": "shop-site", "site_title": "Shop", "store_enabled": true},
	}
	subPayloads := []map[string]any{
		{"form_id": "f1", "fields": map[string]any{"email": "a@b.com", "name": "Alice"}},
	}
	orderPayloads := []map[string]any{
		{"id": "ord-1", "total": 42.5, "currency": "EUR", "status": "paid"},
	}
	productPayloads := []map[string]any{
		{"id": "prod-1", "name": "Widget", "price": 9.99},
	}

	s.source.EXPECT().ListSites(ctx).Return(sitePayloads, nil)
	s.sites.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, site *domain.Site) error {
			s.Equal("shop-site", site.SiteName)
			s.True(site.StoreEnabled)
			return nil
		},
	)

	s.source.EXPECT().ListFormSubmissions(ctx, "shop-site").Return(subPayloads, nil)
	s.expectTransaction(ctx)
	s.submissions.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *domain.FormSubmission) (int64, error) {
			s.Equal("shop-site", sub.SiteName)
			s.Equal("f1", sub.FormID)
			s.Require().NotNil(sub.SubmitterEmail)
			s.Equal("a@b.com", *sub.SubmitterEmail)
			return 11, nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, EventFormSubmission, gomock.Any()).Return(nil)

	s.source.EXPECT().ListOrders(ctx, "shop-site").Return(orderPayloads, nil)
	s.expectTransaction(ctx)
	s.orders.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, order *domain.EcommerceOrder) (int64, error) {
			s.Equal("ord-1", order.OrderKey)
			s.Equal(42.5, order.Total)
			s.Equal("EUR", order.Currency)
			return 21, nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, EventOrder, gomock.Any()).Return(nil)

	s.source.EXPECT().ListProducts(ctx, "shop-site").Return(productPayloads, nil)
	s.products.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, product *domain.Product) error {
			s.Equal("prod-1", product.ProductKey)
			s.Equal("Widget", product.Name)
			return nil
		},
	)

	stats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Equal(1, stats.Sites)
	s.Equal(1, stats.Submissions)
	s.Equal(1, stats.Orders)
	s.Equal(1, stats.Products)
	s.Equal(0, stats.Skipped)
	s.Equal(0, stats.Errors)
}

func (s *SyncServiceTestSuite) TestSync_StoreDisabledSkipsEcommerce() {
	ctx := context.Background()

	sitePayloads := []map[string]any{
		{"site_name": "blog-site", "store_enabled": false},
	}

	s.source.EXPECT().ListSites(ctx).Return(sitePayloads, nil)
	s.sites.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	s.source.EXPECT().ListFormSubmissions(ctx, "blog-site").Return(nil, nil)

	stats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Equal(1, stats.Sites)
	s.Equal(0, stats.Orders)
	s.Equal(0, stats.Products)
}

func (s *SyncServiceTestSuite) TestSync_MalformedRecordSkipped() {
	ctx := context.Background()

	sitePayloads := []map[string]any{
		{"site_name": "shop-site", "store_enabled": true},
	}
	orderPayloads := []map[string]any{
		{"total": 10.0}, // no order id
		{"id": "ord-2"},
	}

	s.source.EXPECT().ListSites(ctx).Return(sitePayloads, nil)
	s.sites.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	s.source.EXPECT().ListFormSubmissions(ctx, "shop-site").Return(nil, nil)

	s.source.EXPECT().ListOrders(ctx, "shop-site").Return(orderPayloads, nil)
	s.expectTransaction(ctx)
	s.orders.EXPECT().Upsert(ctx, gomock.Any()).Return(int64(22), nil)
	s.publisher.EXPECT().Publish(ctx, EventOrder, gomock.Any()).Return(nil)

	s.source.EXPECT().ListProducts(ctx, "shop-site").Return(nil, nil)

	stats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.Equal(1, stats.Orders)
	s.Equal(0, stats.Errors)
}

func (s *SyncServiceTestSuite) TestSync_StoreErrorContinuesBatch() {
	ctx := context.Background()

	sitePayloads := []map[string]any{
		{"site_name": "site-a"},
		{"site_name": "site-b"},
	}

	s.source.EXPECT().ListSites(ctx).Return(sitePayloads, nil)
	s.sites.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, site *domain.Site) error {
			if site.SiteName == "site-a" {
				return errors.New("db down")
			}
			return nil
		},
	).Times(2)

	// only the surviving site gets dependent fetches
	s.source.EXPECT().ListFormSubmissions(ctx, "site-b").Return(nil, nil)

	stats, err := s.service.Sync(ctx)

	s.NoError(err)
	s.Equal(1, stats.Sites)
	s.Equal(1, stats.Errors)
}

func (s *SyncServiceTestSuite) TestSync_SourceError() {
	ctx := context.Background()

	s.source.EXPECT().ListSites(ctx).Return(nil, errors.New("api error"))

	stats, err := s.service.Sync(ctx)

	s.Error(err)
	s.Nil(stats)
	s.Contains(err.Error(), "sync sites")
}

func (s *SyncServiceTestSuite) TestSync_PublisherNil() {
	ctx := context.Background()

	service := NewSyncService(
		s.source,
		s.sites,
		s.submissions,
		s.orders,
		s.products,
		s.txManager,
		nil,
		s.logger,
		s.cfg,
	)

	sitePayloads := []map[string]any{
		{"site_name": "plain-site"},
	}
	subPayloads := []map[string]any{
		{"form_id": "f9"},
	}

	s.source.EXPECT().ListSites(ctx).Return(sitePayloads, nil)
	s.sites.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	s.source.EXPECT().ListFormSubmissions(ctx, "plain-site").Return(subPayloads, nil)
	s.expectTransaction(ctx)
	s.submissions.EXPECT().Insert(ctx, gomock.Any()).Return(int64(5), nil)

	stats, err := service.Sync(ctx)

	s.NoError(err)
	s.Equal(1, stats.Submissions)
}
