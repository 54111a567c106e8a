package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

type Authority string

const (
	AuthorityAIAct       Authority = "ai_act_authority"
	AuthorityDPA         Authority = "dpa"
	AuthorityDataSubject Authority = "data_subject"
	AuthorityCSIRT       Authority = "csirt"
	AuthorityENISA       Authority = "enisa"
)

type Regulation string

const (
	RegulationAIAct Regulation = "ai_act"
	RegulationGDPR  Regulation = "gdpr"
	RegulationNIS2  Regulation = "nis2"
	RegulationCRA   Regulation = "cra"
)

type NotificationType string

const (
	NotificationEarlyWarning NotificationType = "early_warning"
	NotificationInitial      NotificationType = "initial"
	NotificationIntermediate NotificationType = "intermediate"
	NotificationFinal        NotificationType = "final"
)

type NotificationStatus string

const (
	NotificationPending      NotificationStatus = "pending"
	NotificationDraft        NotificationStatus = "draft"
	NotificationSent         NotificationStatus = "sent"
	NotificationAcknowledged NotificationStatus = "acknowledged"
	// NotificationOverdue is a stored marker written by the sweeper for
	// index-friendly queries. The computed view in DisplayStatus is
	// authoritative for anything user-facing.
	NotificationOverdue NotificationStatus = "overdue"
)

// notificationTransitions covers the persisted lifecycle. overdue is not
// terminal: a late send is still a valid send.
var notificationTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationPending:      {NotificationDraft, NotificationSent},
	NotificationDraft:        {NotificationSent},
	NotificationOverdue:      {NotificationDraft, NotificationSent},
	NotificationSent:         {NotificationAcknowledged},
	NotificationAcknowledged: {},
}

func (from NotificationStatus) CanTransitionTo(to NotificationStatus) bool {
	for _, next := range notificationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s NotificationStatus) IsTerminal() bool {
	return len(notificationTransitions[s]) == 0
}

// Sendable statuses are everything a "mark sent" action may start from.
func (s NotificationStatus) Sendable() bool {
	return s == NotificationPending || s == NotificationDraft || s == NotificationOverdue
}

type IncidentNotification struct {
	ID               uuid.UUID          `json:"id"`
	IncidentID       uuid.UUID          `json:"incident_id"`
	Authority        Authority          `json:"authority"`
	Regulation       Regulation         `json:"regulation"`
	NotificationType NotificationType   `json:"notification_type"`
	DeadlineHours    int                `json:"deadline_hours"`
	DueAt            time.Time          `json:"due_at"`
	Status           NotificationStatus `json:"status"`
	SentAt           *time.Time         `json:"sent_at,omitempty"`
	AcknowledgedAt   *time.Time         `json:"acknowledged_at,omitempty"`
	TemplateID       *uuid.UUID         `json:"template_id,omitempty"`
	Content          *string            `json:"content,omitempty"`
	SentBy           *uuid.UUID         `json:"sent_by,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// IsOverdue is the authoritative overdue predicate: unsent and past due.
// The stored overdue literal counts as unsent here, so a row the sweeper
// already flagged stays overdue in the computed view.
func (n *IncidentNotification) IsOverdue(now time.Time) bool {
	switch n.Status {
	case NotificationPending, NotificationDraft, NotificationOverdue:
		return now.After(n.DueAt)
	default:
		return false
	}
}

// DisplayStatus resolves the status to show: the overdue overlay applies to
// pending/draft rows whose deadline has passed, regardless of whether the
// sweeper has flagged them yet.
func (n *IncidentNotification) DisplayStatus(now time.Time) NotificationStatus {
	if n.IsOverdue(now) {
		return NotificationOverdue
	}
	return n.Status
}

// MarkSent applies the explicit send action. Late sends are allowed; only
// truly terminal states are rejected.
func (n *IncidentNotification) MarkSent(userID uuid.UUID, now time.Time) error {
	if n.Status.IsTerminal() || n.Status == NotificationSent {
		return fmt.Errorf("notification %s: mark sent from %s: %w", n.ID, n.Status, e.ErrAlreadyFinalized)
	}
	if !n.Status.Sendable() {
		return fmt.Errorf("notification %s: mark sent from %s: %w", n.ID, n.Status, e.ErrInvalidTransition)
	}
	t := now
	n.Status = NotificationSent
	n.SentAt = &t
	n.SentBy = &userID
	return nil
}

// Acknowledge records the receiving authority's confirmation.
func (n *IncidentNotification) Acknowledge(now time.Time) error {
	if n.Status == NotificationAcknowledged {
		return fmt.Errorf("notification %s: acknowledge from %s: %w", n.ID, n.Status, e.ErrAlreadyFinalized)
	}
	if !n.Status.CanTransitionTo(NotificationAcknowledged) {
		return fmt.Errorf("notification %s: acknowledge from %s: %w", n.ID, n.Status, e.ErrInvalidTransition)
	}
	t := now
	n.Status = NotificationAcknowledged
	n.AcknowledgedAt = &t
	return nil
}

// NotificationView is a notification decorated with its time-derived state
// for display: the computed status (overdue overlay applied) and the signed
// hours remaining until the deadline.
type NotificationView struct {
	IncidentNotification
	EffectiveStatus NotificationStatus `json:"effective_status"`
	HoursRemaining  float64            `json:"hours_remaining"`
}

// AttachContent stores generated content and promotes pending to draft.
// A row already flagged overdue keeps its stored flag; the content is still
// recorded so a late send has something to send.
func (n *IncidentNotification) AttachContent(content string, templateID *uuid.UUID) error {
	if n.Status == NotificationSent || n.Status == NotificationAcknowledged {
		return fmt.Errorf("notification %s: attach content from %s: %w", n.ID, n.Status, e.ErrAlreadyFinalized)
	}
	n.Content = &content
	n.TemplateID = templateID
	if n.Status == NotificationPending {
		n.Status = NotificationDraft
	}
	return nil
}
