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

type IncidentComplianceService struct {
	incidents     IncidentRepository
	notifications NotificationRepository
	events        EventPublisher
	cache         StatsCache
	clock         compliance.Clock
	logger        *slog.Logger
}

func NewIncidentService(
	incidents IncidentRepository,
	notifications NotificationRepository,
	events EventPublisher,
	cache StatsCache,
	clock compliance.Clock,
	logger *slog.Logger,
) *IncidentComplianceService {
	return &IncidentComplianceService{
		incidents:     incidents,
		notifications: notifications,
		events:        events,
		cache:         cache,
		clock:         clock,
		logger:        logger,
	}
}

// Create registers the incident and synchronously generates its required
// notifications: the caller gets back an incident whose legal workflow
// already exists.
func (s *IncidentComplianceService) Create(ctx context.Context, req domain.CreateIncidentRequest) (*domain.Incident, error) {
	now := s.clock.Now()

	detectedAt := now
	if req.DetectedAt != nil {
		detectedAt = req.DetectedAt.UTC()
	}

	// the number carries the year the incident was detected, not the year
	// somebody got around to filing it
	year := detectedAt.Year()
	seq, err := s.incidents.NextSequence(ctx, year)
	if err != nil {
		return nil, err
	}

	inc := &domain.Incident{
		ID:             uuid.New(),
		IncidentNumber: domain.FormatIncidentNumber(year, seq),
		Type:           req.Type,
		Severity:       req.Severity,
		Status:         domain.IncidentDetected,
		Title:          req.Title,
		Description:    req.Description,
		RiskScore:      req.RiskScore,
		AffectedUsers:  req.AffectedUsers,
		DataCategories: req.DataCategories,
		DetectedAt:     detectedAt,
		RobotID:        req.RobotID,
		LogIDs:         req.LogIDs,
		AlertIDs:       req.AlertIDs,
	}

	if err := s.incidents.Create(ctx, inc); err != nil {
		return nil, err
	}

	if _, err := s.generate(ctx, inc); err != nil {
		// the incident exists; its workflow can be regenerated, so surface
		// the failure instead of leaving the caller guessing
		return nil, err
	}

	s.invalidateStats(ctx)
	s.logger.Info("incident created",
		slog.String("incident_number", inc.IncidentNumber),
		slog.String("type", string(inc.Type)),
		slog.String("severity", string(inc.Severity)),
	)
	return inc, nil
}

// generate evaluates the rule matrix and bulk-inserts the required
// notifications. Idempotent: the insert skips tuples that already exist.
func (s *IncidentComplianceService) generate(ctx context.Context, inc *domain.Incident) (int64, error) {
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

	inserted, err := s.notifications.BulkInsert(ctx, rows)
	if err != nil {
		if errors.Is(err, e.ErrUniqueViolation) {
			// concurrent regeneration; the constraint did its job
			return 0, nil
		}
		return 0, err
	}
	return inserted, nil
}

func (s *IncidentComplianceService) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	return s.incidents.Get(ctx, id)
}

func (s *IncidentComplianceService) List(ctx context.Context, req domain.ListIncidentsRequest) (*domain.ListIncidentsResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	incidents, total, err := s.incidents.List(ctx, req)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	return &domain.ListIncidentsResponse{
		Incidents: incidents,
		Page:      req.Page,
		Limit:     req.Limit,
		Total:     total,
	}, nil
}

// Update patches descriptive fields. A type change re-runs workflow
// generation, which can only add newly required notifications: issued ones
// are never touched, and due timestamps stay anchored to the immutable
// detection time.
func (s *IncidentComplianceService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateIncidentRequest) (*domain.Incident, error) {
	inc, err := s.incidents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	typeChanged := false
	if req.Type != nil && *req.Type != inc.Type {
		inc.Type = *req.Type
		typeChanged = true
	}
	if req.Severity != nil {
		inc.Severity = *req.Severity
	}
	if req.Title != nil {
		inc.Title = *req.Title
	}
	if req.Description != nil {
		inc.Description = *req.Description
	}
	if req.RootCause != nil {
		inc.RootCause = req.RootCause
	}
	if req.Resolution != nil {
		inc.Resolution = req.Resolution
	}
	if req.RiskScore != nil {
		inc.RiskScore = req.RiskScore
	}
	if req.AffectedUsers != nil {
		inc.AffectedUsers = req.AffectedUsers
	}
	if req.DataCategories != nil {
		inc.DataCategories = req.DataCategories
	}

	if err := s.incidents.Update(ctx, inc); err != nil {
		return nil, err
	}

	if typeChanged {
		added, err := s.generate(ctx, inc)
		if err != nil {
			return nil, err
		}
		if added > 0 {
			s.logger.Info("notifications added after type change",
				slog.String("incident_number", inc.IncidentNumber),
				slog.Int64("added", added),
			)
		}
	}

	s.invalidateStats(ctx)
	return inc, nil
}

// Transition validates the status change against the transition table and
// persists it with a conditional write guarding on the previous status.
func (s *IncidentComplianceService) Transition(ctx context.Context, id uuid.UUID, next domain.IncidentStatus) (*domain.Incident, error) {
	inc, err := s.incidents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := inc.Status
	now := s.clock.Now()
	if err := inc.ApplyTransition(next, now); err != nil {
		return nil, err
	}

	if err := s.incidents.ApplyTransition(ctx, inc, prev); err != nil {
		return nil, err
	}

	if prev == domain.IncidentResolved && next == domain.IncidentInvestigating {
		s.logger.Warn("incident reopened",
			slog.String("incident_number", inc.IncidentNumber),
			slog.String("id", inc.ID.String()),
		)
	}

	s.publish(ctx, domain.ComplianceEvent{
		Kind:           domain.EventIncidentTransition,
		IncidentID:     inc.ID,
		IncidentNumber: inc.IncidentNumber,
		Status:         string(next),
		OccurredAt:     now,
	})
	s.invalidateStats(ctx)
	return inc, nil
}

func (s *IncidentComplianceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.incidents.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *IncidentComplianceService) publish(ctx context.Context, event domain.ComplianceEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Enqueue(ctx, event); err != nil {
		s.logger.Error("enqueue compliance event failed",
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
	}
}

func (s *IncidentComplianceService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidate failed", slog.Any("error", err))
	}
}
