package domain

import (
	"time"

	"github.com/google/uuid"
)

type CreateIncidentRequest struct {
	Type           IncidentType     `json:"type" validate:"required,incident_type"`
	Severity       IncidentSeverity `json:"severity" validate:"required,incident_severity"`
	Title          string           `json:"title" validate:"required,min=3,max=200"`
	Description    string           `json:"description" validate:"required"`
	RiskScore      *float64         `json:"risk_score" validate:"omitempty,min=0,max=100"`
	AffectedUsers  *int             `json:"affected_users" validate:"omitempty,min=0"`
	DataCategories []string         `json:"data_categories"`
	DetectedAt     *time.Time       `json:"detected_at"`
	RobotID        *uuid.UUID       `json:"robot_id"`
	LogIDs         []uuid.UUID      `json:"log_ids"`
	AlertIDs       []uuid.UUID      `json:"alert_ids"`
}

// UpdateIncidentRequest patches descriptive fields. Status is not here:
// status moves only through the transition endpoint. Changing Type can add
// newly required notifications but never removes issued ones.
type UpdateIncidentRequest struct {
	Type           *IncidentType     `json:"type" validate:"omitempty,incident_type"`
	Severity       *IncidentSeverity `json:"severity" validate:"omitempty,incident_severity"`
	Title          *string           `json:"title" validate:"omitempty,min=3,max=200"`
	Description    *string           `json:"description" validate:"omitempty"`
	RootCause      *string           `json:"root_cause"`
	Resolution     *string           `json:"resolution"`
	RiskScore      *float64          `json:"risk_score" validate:"omitempty,min=0,max=100"`
	AffectedUsers  *int              `json:"affected_users" validate:"omitempty,min=0"`
	DataCategories []string          `json:"data_categories"`
}

type TransitionIncidentRequest struct {
	Status IncidentStatus `json:"status" validate:"required,incident_status"`
}

type ListIncidentsRequest struct {
	Page     int               `json:"page" validate:"min=1"`
	Limit    int               `json:"limit" validate:"min=1,max=100"`
	Type     *IncidentType     `json:"type" validate:"omitempty,incident_type"`
	Severity *IncidentSeverity `json:"severity" validate:"omitempty,incident_severity"`
	Status   *IncidentStatus   `json:"status" validate:"omitempty,incident_status"`
	RobotID  *uuid.UUID        `json:"robot_id"`
	From     *time.Time        `json:"from"`
	To       *time.Time        `json:"to"`
}

type ListIncidentsResponse struct {
	Incidents []Incident `json:"incidents"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
	Total     int64      `json:"total"`
}

type MarkSentRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type GenerateContentRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
	Content    string     `json:"content" validate:"required"`
}

type CreateTemplateRequest struct {
	Name             string           `json:"name" validate:"required,min=3,max=120"`
	Regulation       Regulation       `json:"regulation" validate:"required,regulation"`
	Authority        Authority        `json:"authority" validate:"required,authority"`
	NotificationType NotificationType `json:"notification_type" validate:"required,notification_type"`
	Subject          string           `json:"subject" validate:"required"`
	Body             string           `json:"body" validate:"required"`
	IsDefault        bool             `json:"is_default"`
}

type UpdateTemplateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=3,max=120"`
	Subject   *string `json:"subject" validate:"omitempty"`
	Body      *string `json:"body" validate:"omitempty"`
	IsDefault *bool   `json:"is_default"`
}
