package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

// statsCacheTTL is deliberately short: overdue counts are computed from the
// current clock, so a stale snapshot must age out quickly.
const statsCacheTTL = 30 * time.Second

type DashboardStatsService struct {
	incidents     IncidentRepository
	notifications NotificationRepository
	cache         StatsCache
	clock         compliance.Clock
	logger        *slog.Logger
}

func NewStatsService(
	incidents IncidentRepository,
	notifications NotificationRepository,
	cache StatsCache,
	clock compliance.Clock,
	logger *slog.Logger,
) *DashboardStatsService {
	return &DashboardStatsService{
		incidents:     incidents,
		notifications: notifications,
		cache:         cache,
		clock:         clock,
		logger:        logger,
	}
}

func (s *DashboardStatsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	incidents, err := s.incidents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := compliance.BuildDashboardStats(incidents, notifications, s.clock.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats, statsCacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", slog.Any("error", err))
		}
	}
	return stats, nil
}
