package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

type NotificationRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewNotificationRepo(pool *pgxpool.Pool, logger *slog.Logger) *NotificationRepo {
	return &NotificationRepo{pool: pool, logger: logger}
}

const notificationColumns = `
	id, incident_id, authority, regulation, notification_type,
	deadline_hours, due_at, status, sent_at, acknowledged_at,
	template_id, content, sent_by, created_at
`

func scanNotification(row pgx.Row) (*domain.IncidentNotification, error) {
	var n domain.IncidentNotification
	err := row.Scan(
		&n.ID,
		&n.IncidentID,
		&n.Authority,
		&n.Regulation,
		&n.NotificationType,
		&n.DeadlineHours,
		&n.DueAt,
		&n.Status,
		&n.SentAt,
		&n.AcknowledgedAt,
		&n.TemplateID,
		&n.Content,
		&n.SentBy,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// BulkInsert relies on the unique index over (incident_id, authority,
// regulation, notification_type): re-running workflow generation skips
// existing tuples instead of failing.
func (p *NotificationRepo) BulkInsert(ctx context.Context, notifications []domain.IncidentNotification) (int64, error) {
	const op = "postgres.Notification.BulkInsert"

	if len(notifications) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO incident_notifications (` + notificationColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (incident_id, authority, regulation, notification_type) DO NOTHING
	`

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i := range notifications {
		n := &notifications[i]
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		batch.Queue(query,
			n.ID, n.IncidentID, n.Authority, n.Regulation, n.NotificationType,
			n.DeadlineHours, n.DueAt, n.Status, n.SentAt, n.AcknowledgedAt,
			n.TemplateID, n.Content, n.SentBy, n.CreatedAt,
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range notifications {
		cmd, err := results.Exec()
		if err != nil {
			p.logger.Error("batch exec failed", slog.String("op", op), slog.Any("error", err))
			return inserted, e.WrapError(ctx, op, err)
		}
		inserted += cmd.RowsAffected()
	}
	return inserted, nil
}

func (p *NotificationRepo) Get(ctx context.Context, id uuid.UUID) (*domain.IncidentNotification, error) {
	const op = "postgres.Notification.Get"

	query := `SELECT ` + notificationColumns + ` FROM incident_notifications WHERE id = $1`

	n, err := scanNotification(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return n, nil
}

func (p *NotificationRepo) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]domain.IncidentNotification, error) {
	const op = "postgres.Notification.ListByIncident"

	query := `SELECT ` + notificationColumns + ` FROM incident_notifications WHERE incident_id = $1 ORDER BY due_at`

	return p.queryMany(ctx, op, query, incidentID)
}

func (p *NotificationRepo) ListAll(ctx context.Context) ([]domain.IncidentNotification, error) {
	const op = "postgres.Notification.ListAll"

	query := `SELECT ` + notificationColumns + ` FROM incident_notifications`

	return p.queryMany(ctx, op, query)
}

func (p *NotificationRepo) queryMany(ctx context.Context, op, query string, args ...any) ([]domain.IncidentNotification, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []domain.IncidentNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

// MarkSent is a conditional single-row update. pending, draft and the
// sweeper's overdue flag are all sendable; a concurrent sweep cannot leave a
// sent notification overdue because the send write is the one that guards on
// status last.
func (p *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, userID uuid.UUID, sentAt time.Time) (*domain.IncidentNotification, error) {
	const op = "postgres.Notification.MarkSent"

	query := `
		UPDATE incident_notifications
		SET status = 'sent', sent_at = $2, sent_by = $3
		WHERE id = $1 AND status IN ('pending', 'draft', 'overdue')
		RETURNING ` + notificationColumns

	n, err := scanNotification(p.pool.QueryRow(ctx, query, id, sentAt, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.classifyNoRows(ctx, op, id)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return n, nil
}

func (p *NotificationRepo) Acknowledge(ctx context.Context, id uuid.UUID, ackedAt time.Time) (*domain.IncidentNotification, error) {
	const op = "postgres.Notification.Acknowledge"

	query := `
		UPDATE incident_notifications
		SET status = 'acknowledged', acknowledged_at = $2
		WHERE id = $1 AND status = 'sent'
		RETURNING ` + notificationColumns

	n, err := scanNotification(p.pool.QueryRow(ctx, query, id, ackedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.classifyNoRows(ctx, op, id)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return n, nil
}

// SaveContent stores generated content; a pending row becomes a draft, an
// overdue flag is preserved so indexed queries keep seeing it.
func (p *NotificationRepo) SaveContent(ctx context.Context, id uuid.UUID, content string, templateID *uuid.UUID) (*domain.IncidentNotification, error) {
	const op = "postgres.Notification.SaveContent"

	query := `
		UPDATE incident_notifications
		SET content     = $2,
			template_id = $3,
			status      = CASE WHEN status = 'pending' THEN 'draft' ELSE status END
		WHERE id = $1 AND status NOT IN ('sent', 'acknowledged')
		RETURNING ` + notificationColumns

	n, err := scanNotification(p.pool.QueryRow(ctx, query, id, content, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.classifyNoRows(ctx, op, id)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return n, nil
}

// classifyNoRows distinguishes "no such row" from "row exists but its status
// failed the guard" after a conditional update matched nothing.
func (p *NotificationRepo) classifyNoRows(ctx context.Context, op string, id uuid.UUID) error {
	var status domain.NotificationStatus
	err := p.pool.QueryRow(ctx, `SELECT status FROM incident_notifications WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return e.WrapError(ctx, op, err)
	}
	switch status {
	case domain.NotificationSent, domain.NotificationAcknowledged:
		return fmt.Errorf("%s: status=%s: %w", op, status, e.ErrAlreadyFinalized)
	default:
		return fmt.Errorf("%s: status=%s: %w", op, status, e.ErrInvalidTransition)
	}
}

// MarkOverdue is the sweeper's conditional write. Re-running it immediately
// is a no-op: already-flagged rows no longer match the WHERE clause.
func (p *NotificationRepo) MarkOverdue(ctx context.Context, now time.Time) ([]domain.IncidentNotification, error) {
	const op = "postgres.Notification.MarkOverdue"

	query := `
		UPDATE incident_notifications
		SET status = 'overdue'
		WHERE status IN ('pending', 'draft') AND due_at < $1
		RETURNING ` + notificationColumns

	return p.queryMany(ctx, op, query, now)
}
