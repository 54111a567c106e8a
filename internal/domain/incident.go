package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

type IncidentType string

const (
	IncidentSafety        IncidentType = "safety"
	IncidentSecurity      IncidentType = "security"
	IncidentDataBreach    IncidentType = "data_breach"
	IncidentAIMalfunction IncidentType = "ai_malfunction"
	IncidentVulnerability IncidentType = "vulnerability"
)

type IncidentSeverity string

const (
	SeverityCritical IncidentSeverity = "critical"
	SeverityHigh     IncidentSeverity = "high"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityLow      IncidentSeverity = "low"
)

// SeverityRank orders severities for list sorting, critical first.
func SeverityRank(s IncidentSeverity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

type IncidentStatus string

const (
	IncidentDetected      IncidentStatus = "detected"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentContained     IncidentStatus = "contained"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentClosed        IncidentStatus = "closed"
)

// incidentTransitions is the full legal transition table. closed is terminal;
// resolved -> investigating is the only reopen path.
var incidentTransitions = map[IncidentStatus][]IncidentStatus{
	IncidentDetected:      {IncidentInvestigating},
	IncidentInvestigating: {IncidentContained, IncidentResolved},
	IncidentContained:     {IncidentResolved},
	IncidentResolved:      {IncidentClosed, IncidentInvestigating},
	IncidentClosed:        {},
}

// CanTransitionTo reports whether from -> to is a legal incident transition.
// A same-state request is not legal.
func (from IncidentStatus) CanTransitionTo(to IncidentStatus) bool {
	for _, next := range incidentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses for the given status.
func (from IncidentStatus) AllowedTransitions() []IncidentStatus {
	return incidentTransitions[from]
}

func (s IncidentStatus) IsTerminal() bool {
	return len(incidentTransitions[s]) == 0
}

type Incident struct {
	ID             uuid.UUID        `json:"id"`
	IncidentNumber string           `json:"incident_number"`
	Type           IncidentType     `json:"type"`
	Severity       IncidentSeverity `json:"severity"`
	Status         IncidentStatus   `json:"status"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	RootCause      *string          `json:"root_cause,omitempty"`
	Resolution     *string          `json:"resolution,omitempty"`
	RiskScore      *float64         `json:"risk_score,omitempty"`
	AffectedUsers  *int             `json:"affected_users,omitempty"`
	DataCategories []string         `json:"data_categories,omitempty"`
	DetectedAt     time.Time        `json:"detected_at"`
	ContainedAt    *time.Time       `json:"contained_at,omitempty"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	RobotID        *uuid.UUID       `json:"robot_id,omitempty"`
	LogIDs         []uuid.UUID      `json:"log_ids,omitempty"`
	AlertIDs       []uuid.UUID      `json:"alert_ids,omitempty"`
	SystemSnapshot []byte           `json:"system_snapshot,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsOpen reports whether the incident still counts against the open total.
func (i *Incident) IsOpen() bool {
	return i.Status != IncidentClosed
}

// ApplyTransition moves the incident to next and stamps the lifecycle
// timestamps that entering the new status implies. Re-entering investigating
// from resolved keeps ResolvedAt: it records a historical fact and is only
// overwritten by a later resolution.
func (i *Incident) ApplyTransition(next IncidentStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(next) {
		if i.Status.IsTerminal() {
			return fmt.Errorf("incident %s: %s -> %s: %w", i.IncidentNumber, i.Status, next, e.ErrAlreadyFinalized)
		}
		return fmt.Errorf("incident %s: %s -> %s: %w", i.IncidentNumber, i.Status, next, e.ErrInvalidTransition)
	}
	switch next {
	case IncidentContained:
		t := now
		i.ContainedAt = &t
	case IncidentResolved:
		t := now
		i.ResolvedAt = &t
	case IncidentClosed:
		t := now
		i.ClosedAt = &t
	}
	i.Status = next
	return nil
}

// FormatIncidentNumber renders the human-readable sequence number, e.g.
// INC-2025-007. The sequence resets per calendar year.
func FormatIncidentNumber(year int, seq int) string {
	return fmt.Sprintf("INC-%04d-%03d", year, seq)
}
