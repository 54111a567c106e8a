package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

type IncidentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewIncidentRepo(pool *pgxpool.Pool, logger *slog.Logger) *IncidentRepo {
	return &IncidentRepo{pool: pool, logger: logger}
}

const incidentColumns = `
	id, incident_number, type, severity, status, title, description,
	root_cause, resolution, risk_score, affected_users, data_categories,
	detected_at, contained_at, resolved_at, closed_at, robot_id,
	log_ids, alert_ids, system_snapshot, created_at, updated_at
`

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.IncidentNumber,
		&inc.Type,
		&inc.Severity,
		&inc.Status,
		&inc.Title,
		&inc.Description,
		&inc.RootCause,
		&inc.Resolution,
		&inc.RiskScore,
		&inc.AffectedUsers,
		&inc.DataCategories,
		&inc.DetectedAt,
		&inc.ContainedAt,
		&inc.ResolvedAt,
		&inc.ClosedAt,
		&inc.RobotID,
		&inc.LogIDs,
		&inc.AlertIDs,
		&inc.SystemSnapshot,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (p *IncidentRepo) Create(ctx context.Context, incident *domain.Incident) error {
	const op = "postgres.Incident.Create"

	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`

	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	incident.UpdatedAt = incident.CreatedAt

	_, err := p.pool.Exec(ctx, query,
		incident.ID,
		incident.IncidentNumber,
		incident.Type,
		incident.Severity,
		incident.Status,
		incident.Title,
		incident.Description,
		incident.RootCause,
		incident.Resolution,
		incident.RiskScore,
		incident.AffectedUsers,
		incident.DataCategories,
		incident.DetectedAt,
		incident.ContainedAt,
		incident.ResolvedAt,
		incident.ClosedAt,
		incident.RobotID,
		incident.LogIDs,
		incident.AlertIDs,
		incident.SystemSnapshot,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (p *IncidentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "postgres.Incident.Get"

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	inc, err := scanIncident(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return inc, nil
}

// List orders by severity rank ascending then detection time descending,
// the ordering used on every incident list surface.
func (p *IncidentRepo) List(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, int64, error) {
	const op = "postgres.Incident.List"

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	offset := (req.Page - 1) * req.Limit

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Type != nil {
		where = append(where, "type = "+arg(*req.Type))
	}
	if req.Severity != nil {
		where = append(where, "severity = "+arg(*req.Severity))
	}
	if req.Status != nil {
		where = append(where, "status = "+arg(*req.Status))
	}
	if req.RobotID != nil {
		where = append(where, "robot_id = "+arg(*req.RobotID))
	}
	if req.From != nil {
		where = append(where, "detected_at >= "+arg(*req.From))
	}
	if req.To != nil {
		where = append(where, "detected_at <= "+arg(*req.To))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM incidents"+clause, args...).Scan(&total); err != nil {
		p.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents` + clause + `
		ORDER BY CASE severity
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3
		END, detected_at DESC
		LIMIT ` + arg(req.Limit) + ` OFFSET ` + arg(offset)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, 0, e.WrapError(ctx, op, err)
		}
		incidents = append(incidents, *inc)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	return incidents, total, nil
}

func (p *IncidentRepo) ListAll(ctx context.Context) ([]domain.Incident, error) {
	const op = "postgres.Incident.ListAll"

	rows, err := p.pool.Query(ctx, `SELECT `+incidentColumns+` FROM incidents`)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		incidents = append(incidents, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return incidents, nil
}

// Update writes descriptive fields only. Status, detected_at and the
// incident number never change here.
func (p *IncidentRepo) Update(ctx context.Context, incident *domain.Incident) error {
	const op = "postgres.Incident.Update"

	const query = `
		UPDATE incidents
		SET type            = $2,
			severity        = $3,
			title           = $4,
			description     = $5,
			root_cause      = $6,
			resolution      = $7,
			risk_score      = $8,
			affected_users  = $9,
			data_categories = $10,
			updated_at      = NOW()
		WHERE id = $1
	`

	cmd, err := p.pool.Exec(ctx, query,
		incident.ID,
		incident.Type,
		incident.Severity,
		incident.Title,
		incident.Description,
		incident.RootCause,
		incident.Resolution,
		incident.RiskScore,
		incident.AffectedUsers,
		incident.DataCategories,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", incident.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (p *IncidentRepo) ApplyTransition(ctx context.Context, incident *domain.Incident, prev domain.IncidentStatus) error {
	const op = "postgres.Incident.ApplyTransition"

	const query = `
		UPDATE incidents
		SET status       = $3,
			contained_at = $4,
			resolved_at  = $5,
			closed_at    = $6,
			updated_at   = NOW()
		WHERE id = $1 AND status = $2
	`

	cmd, err := p.pool.Exec(ctx, query,
		incident.ID,
		prev,
		incident.Status,
		incident.ContainedAt,
		incident.ResolvedAt,
		incident.ClosedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", incident.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		// the row moved (or vanished) under us; the caller re-reads and retries
		var exists bool
		if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM incidents WHERE id = $1)`, incident.ID).Scan(&exists); err != nil {
			return e.WrapError(ctx, op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, e.ErrConflict)
	}
	return nil
}

// Delete removes the incident; incident_notifications cascade via FK.
func (p *IncidentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Incident.Delete"

	cmd, err := p.pool.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

// NextSequence reserves the next incident number for the year. The upsert
// serializes concurrent creates on the year row, so numbers are unique and
// monotonically increasing within a calendar year.
func (p *IncidentRepo) NextSequence(ctx context.Context, year int) (int, error) {
	const op = "postgres.Incident.NextSequence"

	const query = `
		INSERT INTO incident_sequences (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = incident_sequences.last_seq + 1
		RETURNING last_seq
	`

	var seq int
	if err := p.pool.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.Int("year", year))
		return 0, e.WrapError(ctx, op, err)
	}
	return seq, nil
}
