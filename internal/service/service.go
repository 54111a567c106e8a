package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// IncidentRepository is the persistence surface the incident use cases need.
// Satisfied by the postgres implementation.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, int64, error)
	ListAll(ctx context.Context) ([]domain.Incident, error)
	Update(ctx context.Context, incident *domain.Incident) error
	ApplyTransition(ctx context.Context, incident *domain.Incident, prev domain.IncidentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	NextSequence(ctx context.Context, year int) (int, error)
}

type NotificationRepository interface {
	BulkInsert(ctx context.Context, notifications []domain.IncidentNotification) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.IncidentNotification, error)
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]domain.IncidentNotification, error)
	ListAll(ctx context.Context) ([]domain.IncidentNotification, error)
	MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID, sentAt time.Time) (*domain.IncidentNotification, error)
	Acknowledge(ctx context.Context, id uuid.UUID, ackedAt time.Time) (*domain.IncidentNotification, error)
	SaveContent(ctx context.Context, id uuid.UUID, content string, templateID *uuid.UUID) (*domain.IncidentNotification, error)
	MarkOverdue(ctx context.Context, now time.Time) ([]domain.IncidentNotification, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tmpl *domain.NotificationTemplate) error
	Get(ctx context.Context, id uuid.UUID) (*domain.NotificationTemplate, error)
	List(ctx context.Context) ([]domain.NotificationTemplate, error)
	Update(ctx context.Context, tmpl *domain.NotificationTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindDefault(ctx context.Context, regulation domain.Regulation, authority domain.Authority, typ domain.NotificationType) (*domain.NotificationTemplate, error)
}

// EventPublisher pushes compliance events toward the webhook sender.
type EventPublisher interface {
	Enqueue(ctx context.Context, event domain.ComplianceEvent) error
}

// StatsCache holds the last dashboard snapshot.
type StatsCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, error)
	Set(ctx context.Context, stats *domain.DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type IncidentService interface {
	Create(ctx context.Context, req domain.CreateIncidentRequest) (*domain.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, req domain.ListIncidentsRequest) (*domain.ListIncidentsResponse, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateIncidentRequest) (*domain.Incident, error)
	Transition(ctx context.Context, id uuid.UUID, next domain.IncidentStatus) (*domain.Incident, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationService interface {
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]domain.NotificationView, error)
	Regenerate(ctx context.Context, incidentID uuid.UUID) (int64, error)
	SaveContent(ctx context.Context, id uuid.UUID, req domain.GenerateContentRequest) (*domain.IncidentNotification, error)
	MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*domain.IncidentNotification, error)
	Acknowledge(ctx context.Context, id uuid.UUID) (*domain.IncidentNotification, error)
}

type TemplateService interface {
	Create(ctx context.Context, req domain.CreateTemplateRequest) (*domain.NotificationTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.NotificationTemplate, error)
	List(ctx context.Context) ([]domain.NotificationTemplate, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateTemplateRequest) (*domain.NotificationTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
}

type Service struct {
	Incidents     IncidentService
	Notifications NotificationService
	Templates     TemplateService
	Stats         StatsService
}

func NewService(
	incidents IncidentService,
	notifications NotificationService,
	templates TemplateService,
	stats StatsService,
) *Service {
	return &Service{
		Incidents:     incidents,
		Notifications: notifications,
		Templates:     templates,
		Stats:         stats,
	}
}
