package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

type NotificationComplianceService struct {
	incidents     IncidentRepository
	notifications NotificationRepository
	templates     TemplateRepository
	cache         StatsCache
	clock         compliance.Clock
	logger        *slog.Logger
}

func NewNotificationService(
	incidents IncidentRepository,
	notifications NotificationRepository,
	templates TemplateRepository,
	cache StatsCache,
	clock compliance.Clock,
	logger *slog.Logger,
) *NotificationComplianceService {
	return &NotificationComplianceService{
		incidents:     incidents,
		notifications: notifications,
		templates:     templates,
		cache:         cache,
		clock:         clock,
		logger:        logger,
	}
}

// ListByIncident returns the incident's notifications decorated with the
// computed status and hours remaining; "now" is read fresh per call.
func (s *NotificationComplianceService) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]domain.NotificationView, error) {
	if _, err := s.incidents.Get(ctx, incidentID); err != nil {
		return nil, err
	}

	rows, err := s.notifications.ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]domain.NotificationView, 0, len(rows))
	for _, n := range rows {
		views = append(views, domain.NotificationView{
			IncidentNotification: n,
			EffectiveStatus:      n.DisplayStatus(now),
			HoursRemaining:       compliance.HoursRemaining(n.DueAt, now),
		})
	}
	return views, nil
}

// Regenerate re-runs workflow generation for the incident. Safe to call any
// number of times: only notifications newly required by the current incident
// type are added, existing ones (sent or not) are left alone.
func (s *NotificationComplianceService) Regenerate(ctx context.Context, incidentID uuid.UUID) (int64, error) {
	inc, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return 0, err
	}

	reqs := compliance.GenerateNotifications(inc)
	if len(reqs) == 0 {
		return 0, nil
	}

	rows := make([]domain.IncidentNotification, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, domain.IncidentNotification{
			IncidentID:       r.IncidentID,
			Authority:        r.Authority,
			Regulation:       r.Regulation,
			NotificationType: r.NotificationType,
			DeadlineHours:    r.DeadlineHours,
			DueAt:            r.DueAt,
			Status:           domain.NotificationPending,
		})
	}

	added, err := s.notifications.BulkInsert(ctx, rows)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.logger.Info("notification workflow regenerated",
			slog.String("incident_number", inc.IncidentNumber),
			slog.Int64("added", added),
		)
	}
	return added, nil
}

// SaveContent records externally generated content; pending rows move to
// draft. The core never renders content itself. When the caller names no
// template, the default one for the notification's (regulation, authority,
// type) key is recorded so the draft stays traceable to a template.
func (s *NotificationComplianceService) SaveContent(ctx context.Context, id uuid.UUID, req domain.GenerateContentRequest) (*domain.IncidentNotification, error) {
	templateID := req.TemplateID
	if templateID == nil {
		resolved, err := s.resolveDefaultTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		templateID = resolved
	}
	return s.notifications.SaveContent(ctx, id, req.Content, templateID)
}

func (s *NotificationComplianceService) resolveDefaultTemplate(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if s.templates == nil {
		return nil, nil
	}
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindDefault(ctx, n.Regulation, n.Authority, n.NotificationType)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl.ID, nil
}

// MarkSent applies the explicit send action. A notification the sweeper has
// flagged overdue is still sendable; only sent/acknowledged rows are
// rejected, by the repository's conditional write.
func (s *NotificationComplianceService) MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.IncidentNotification, error) {
	n, err := s.notifications.MarkSent(ctx, id, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("notification marked sent",
		slog.String("id", n.ID.String()),
		slog.String("regulation", string(n.Regulation)),
		slog.String("authority", string(n.Authority)),
		slog.String("sent_by", userID.String()),
	)
	s.invalidateStats(ctx)
	return n, nil
}

func (s *NotificationComplianceService) Acknowledge(ctx context.Context, id uuid.UUID) (*domain.IncidentNotification, error) {
	n, err := s.notifications.Acknowledge(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return n, nil
}

func (s *NotificationComplianceService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidate failed", slog.Any("error", err))
	}
}
