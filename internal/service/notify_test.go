package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cms_syncer/internal/domain"
	"cms_syncer/internal/service/mocks"
)

type NotifyServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	submissions *mocks.MockSubmissionStore
	orders      *mocks.MockOrderStore
	sites       *mocks.MockSiteStore
	deliverer   *mocks.MockDeliverer

	service *NotifyService
}

func (s *NotifyServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.submissions = mocks.NewMockSubmissionStore(s.ctrl)
	s.orders = mocks.NewMockOrderStore(s.ctrl)
	s.sites = mocks.NewMockSiteStore(s.ctrl)
	s.deliverer = mocks.NewMockDeliverer(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewNotifyService(s.submissions, s.orders, s.sites, s.deliverer, logger)
}

func (s *NotifyServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestNotifyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotifyServiceTestSuite))
}

func (s *NotifyServiceTestSuite) TestProcessPending_MarksOnlySuccessful() {
	ctx := context.Background()

	subs := []domain.FormSubmission{{ID: 1}, {ID: 2}}
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(subs, nil)

	s.deliverer.EXPECT().Deliver(ctx, EventFormSubmission, &subs[0]).Return(domain.DeliveryResult{Success: true, ResponseCode: 200})
	s.submissions.EXPECT().MarkDelivered(ctx, int64(1)).Return(nil)

	s.deliverer.EXPECT().Deliver(ctx, EventFormSubmission, &subs[1]).Return(domain.DeliveryResult{ResponseCode: 500})

	s.orders.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)

	stats, err := s.service.ProcessPending(ctx)

	s.NoError(err)
	s.Equal(1, stats.SubmissionsSent)
	s.Equal(1, stats.Failures)
}

func (s *NotifyServiceTestSuite) TestProcessPending_UnconfiguredLeavesPending() {
	ctx := context.Background()

	subs := []domain.FormSubmission{{ID: 3}}
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(subs, nil)
	s.deliverer.EXPECT().Deliver(ctx, EventFormSubmission, &subs[0]).Return(domain.DeliveryResult{Unconfigured: true})

	orders := []domain.EcommerceOrder{{ID: 4}}
	s.orders.EXPECT().ListUndelivered(ctx, "").Return(orders, nil)
	s.deliverer.EXPECT().Deliver(ctx, EventOrder, &orders[0]).Return(domain.DeliveryResult{Unconfigured: true})

	// no MarkDelivered expectations: records stay pending
	stats, err := s.service.ProcessPending(ctx)

	s.NoError(err)
	s.Equal(0, stats.SubmissionsSent)
	s.Equal(0, stats.OrdersSent)
	s.Equal(0, stats.Failures)
}

func (s *NotifyServiceTestSuite) TestProcessPending_MarkFailureCountsAsFailure() {
	ctx := context.Background()

	orders := []domain.EcommerceOrder{{ID: 5}}
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)
	s.orders.EXPECT().ListUndelivered(ctx, "").Return(orders, nil)

	s.deliverer.EXPECT().Deliver(ctx, EventOrder, &orders[0]).Return(domain.DeliveryResult{Success: true, ResponseCode: 200})
	s.orders.EXPECT().MarkDelivered(ctx, int64(5)).Return(errors.New("db down"))

	stats, err := s.service.ProcessPending(ctx)

	s.NoError(err)
	s.Equal(0, stats.OrdersSent)
	s.Equal(1, stats.Failures)
}

func (s *NotifyServiceTestSuite) TestProcessPending_ListError() {
	ctx := context.Background()

	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(nil, errors.New("db down"))

	stats, err := s.service.ProcessPending(ctx)

	s.Error(err)
	s.Nil(stats)
}

func (s *NotifyServiceTestSuite) TestSendDailySummary() {
	ctx := context.Background()

	sites := []domain.Site{
		{SiteName: "a", Published: true, StoreEnabled: true},
		{SiteName: "b", BlogEnabled: true},
	}
	s.sites.EXPECT().List(ctx).Return(sites, nil)
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return([]domain.FormSubmission{{ID: 1}}, nil)
	s.orders.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)

	s.deliverer.EXPECT().Deliver(ctx, EventDailySummary, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, record any) domain.DeliveryResult {
			summary, ok := record.(dailySummary)
			s.Require().True(ok)
			s.Equal(2, summary.Summary.TotalSites)
			s.Equal(1, summary.Summary.PublishedSites)
			s.Equal(1, summary.Summary.SitesWithStore)
			s.Equal(1, summary.Summary.SitesWithBlog)
			s.Equal(1, summary.Summary.PendingSubmissions)
			s.Len(summary.Sites, 2)
			return domain.DeliveryResult{Success: true, ResponseCode: 200}
		},
	)

	s.NoError(s.service.SendDailySummary(ctx))
}

func (s *NotifyServiceTestSuite) TestSendDailySummary_DeliveryFailure() {
	ctx := context.Background()

	s.sites.EXPECT().List(ctx).Return(nil, nil)
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)
	s.orders.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)

	s.deliverer.EXPECT().Deliver(ctx, EventDailySummary, gomock.Any()).Return(domain.DeliveryResult{ResponseCode: 502})

	err := s.service.SendDailySummary(ctx)

	var delErr *domain.DeliveryError
	s.ErrorAs(err, &delErr)
	s.Equal(502, delErr.Code)
}

func (s *NotifyServiceTestSuite) TestSendDailySummary_UnconfiguredIsNoop() {
	ctx := context.Background()

	s.sites.EXPECT().List(ctx).Return(nil, nil)
	s.submissions.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)
	s.orders.EXPECT().ListUndelivered(ctx, "").Return(nil, nil)

	s.deliverer.EXPECT().Deliver(ctx, EventDailySummary, gomock.Any()).Return(domain.DeliveryResult{Unconfigured: true})

	s.NoError(s.service.SendDailySummary(ctx))
}
