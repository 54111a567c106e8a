package domain

import (
	"time"

	"github.com/google/uuid"
)

type ComplianceEventKind string

const (
	EventNotificationOverdue ComplianceEventKind = "notification.overdue"
	EventIncidentTransition  ComplianceEventKind = "incident.transition"
)

// ComplianceEvent is the payload pushed to the webhook queue when the
// sweeper flags a notification or an incident changes status.
type ComplianceEvent struct {
	Kind           ComplianceEventKind `json:"kind"`
	IncidentID     uuid.UUID           `json:"incident_id"`
	NotificationID *uuid.UUID          `json:"notification_id,omitempty"`
	IncidentNumber string              `json:"incident_number,omitempty"`
	Status         string              `json:"status"`
	OccurredAt     time.Time           `json:"occurred_at"`
}
