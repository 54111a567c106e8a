package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	List(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, int64, error)
	ListAll(ctx context.Context) ([]domain.Incident, error)
	Update(ctx context.Context, incident *domain.Incident) error
	// ApplyTransition persists an already-validated status change with
	// single-row conditional semantics: the write lands only if the stored
	// status still equals prev.
	ApplyTransition(ctx context.Context, incident *domain.Incident, prev domain.IncidentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	// NextSequence hands out the next per-year incident number atomically.
	NextSequence(ctx context.Context, year int) (int, error)
}

type NotificationRepository interface {
	// BulkInsert creates the given notifications, silently skipping any row
	// that would violate the (incident_id, authority, regulation, type)
	// uniqueness constraint. Returns the number actually inserted.
	BulkInsert(ctx context.Context, notifications []domain.IncidentNotification) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.IncidentNotification, error)
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]domain.IncidentNotification, error)
	ListAll(ctx context.Context) ([]domain.IncidentNotification, error)
	MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID, sentAt time.Time) (*domain.IncidentNotification, error)
	Acknowledge(ctx context.Context, id uuid.UUID, ackedAt time.Time) (*domain.IncidentNotification, error)
	SaveContent(ctx context.Context, id uuid.UUID, content string, templateID *uuid.UUID) (*domain.IncidentNotification, error)
	// MarkOverdue flips pending/draft rows past their deadline to the stored
	// overdue marker and returns the rows it flipped. Naturally idempotent.
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
