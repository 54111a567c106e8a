package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationTemplate is a reusable subject/body pair keyed by
// (regulation, authority, type). At most one template per key carries
// IsDefault; content generation falls back to it when no explicit template
// id is supplied.
type NotificationTemplate struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Regulation       Regulation       `json:"regulation"`
	Authority        Authority        `json:"authority"`
	NotificationType NotificationType `json:"notification_type"`
	Subject          string           `json:"subject"`
	Body             string           `json:"body"`
	IsDefault        bool             `json:"is_default"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
