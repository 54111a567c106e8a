package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

// NotificationRequest is one notification the workflow generator wants
// created. The repository's bulk insert enforces the uniqueness of
// (incident_id, authority, regulation, notification_type), so regenerating
// after a type change only adds what is newly required.
type NotificationRequest struct {
	IncidentID       uuid.UUID
	Authority        domain.Authority
	Regulation       domain.Regulation
	NotificationType domain.NotificationType
	DeadlineHours    int
	DueAt            time.Time
}

// GenerateNotifications evaluates the rule matrix for the incident and
// returns the full required set with computed due timestamps. Pure: calling
// it twice yields the same requests; idempotency of the insert is the
// repository's job.
func GenerateNotifications(incident *domain.Incident) []NotificationRequest {
	rules := RulesFor(incident.Type)
	if len(rules) == 0 {
		return nil
	}
	reqs := make([]NotificationRequest, 0, len(rules))
	for _, rule := range rules {
		reqs = append(reqs, NotificationRequest{
			IncidentID:       incident.ID,
			Authority:        rule.Authority,
			Regulation:       rule.Regulation,
			NotificationType: rule.NotificationType,
			DeadlineHours:    rule.DeadlineHours,
			DueAt:            ComputeDueAt(incident.DetectedAt, rule.DeadlineHours),
		})
	}
	return reqs
}
