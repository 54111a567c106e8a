package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/service"

	mock_service "github.com/RaaSaaR-org/robot-management-system-sub004/internal/service/mocks"
)

func TestStatsService_Dashboard_CacheHit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockStatsCache(ctrl)
	incidents := mock_service.NewMockIncidentRepository(ctrl)
	notifications := mock_service.NewMockNotificationRepository(ctrl)

	want := &domain.DashboardStats{TotalIncidents: 42}
	cache.EXPECT().Get(gomock.Any()).Return(want, nil).Times(1)
	// repositories must not be touched on a hit

	svc := service.NewStatsService(incidents, notifications, cache, testClock(), testLogger())

	got, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.TotalIncidents != 42 {
		t.Fatalf("expected cached snapshot, got %+v", got)
	}
}

func TestStatsService_Dashboard_MissComputesAndCaches(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockStatsCache(ctrl)
	incidents := mock_service.NewMockIncidentRepository(ctrl)
	notifications := mock_service.NewMockNotificationRepository(ctrl)
	clock := testClock()

	cache.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(1)

	incs := []domain.Incident{
		{Severity: domain.SeverityCritical, Type: domain.IncidentSecurity, Status: domain.IncidentInvestigating, DetectedAt: clock.now.Add(-time.Hour)},
		{Severity: domain.SeverityLow, Type: domain.IncidentSafety, Status: domain.IncidentClosed, DetectedAt: clock.now.Add(-48 * time.Hour)},
	}
	notifs := []domain.IncidentNotification{
		{Status: domain.NotificationPending, DueAt: clock.now.Add(-time.Hour)},
		{Status: domain.NotificationPending, DueAt: clock.now.Add(time.Hour)},
		{Status: domain.NotificationSent, DueAt: clock.now.Add(-time.Hour)},
	}

	incidents.EXPECT().ListAll(gomock.Any()).Return(incs, nil).Times(1)
	notifications.EXPECT().ListAll(gomock.Any()).Return(notifs, nil).Times(1)

	var cached *domain.DashboardStats
	cache.EXPECT().
		Set(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, stats *domain.DashboardStats, _ time.Duration) error {
			cached = stats
			return nil
		}).
		Times(1)

	svc := service.NewStatsService(incidents, notifications, cache, clock, testLogger())

	got, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.TotalIncidents != 2 || got.OpenIncidents != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.OverdueNotifications != 1 {
		t.Fatalf("sent past-due row must not count as overdue: %+v", got)
	}
	if got.PendingNotifications != 1 {
		t.Fatalf("expected 1 pending (not yet due): %+v", got)
	}
	if cached != got {
		t.Fatalf("computed snapshot must be written back to the cache")
	}
}

func TestStatsService_Dashboard_CacheErrorFallsThrough(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockStatsCache(ctrl)
	incidents := mock_service.NewMockIncidentRepository(ctrl)
	notifications := mock_service.NewMockNotificationRepository(ctrl)

	cache.EXPECT().Get(gomock.Any()).Return(nil, errors.New("redis down")).Times(1)
	incidents.EXPECT().ListAll(gomock.Any()).Return([]domain.Incident{}, nil).Times(1)
	notifications.EXPECT().ListAll(gomock.Any()).Return([]domain.IncidentNotification{}, nil).Times(1)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)

	svc := service.NewStatsService(incidents, notifications, cache, testClock(), testLogger())

	got, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("cache failures must not break the dashboard: %v", err)
	}
	if got.TotalIncidents != 0 {
		t.Fatalf("expected empty stats, got %+v", got)
	}
}

func TestStatsService_Dashboard_StoreError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockStatsCache(ctrl)
	incidents := mock_service.NewMockIncidentRepository(ctrl)
	notifications := mock_service.NewMockNotificationRepository(ctrl)

	cache.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(1)
	incidents.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("db down")).Times(1)
	_ = notifications

	svc := service.NewStatsService(incidents, notifications, cache, testClock(), testLogger())

	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
