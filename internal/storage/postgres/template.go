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

type TemplateRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTemplateRepo(pool *pgxpool.Pool, logger *slog.Logger) *TemplateRepo {
	return &TemplateRepo{pool: pool, logger: logger}
}

const templateColumns = `
	id, name, regulation, authority, notification_type,
	subject, body, is_default, created_at, updated_at
`

func scanTemplate(row pgx.Row) (*domain.NotificationTemplate, error) {
	var t domain.NotificationTemplate
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Regulation,
		&t.Authority,
		&t.NotificationType,
		&t.Subject,
		&t.Body,
		&t.IsDefault,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts the template; when it is flagged default, the current
// default for the same (regulation, authority, type) key is cleared in the
// same transaction.
func (p *TemplateRepo) Create(ctx context.Context, tmpl *domain.NotificationTemplate) error {
	const op = "postgres.Template.Create"

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	defer tx.Rollback(ctx)

	if tmpl.IsDefault {
		if err := p.clearDefault(ctx, tx, tmpl); err != nil {
			return e.WrapError(ctx, op, err)
		}
	}

	query := `
		INSERT INTO notification_templates (` + templateColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err = tx.Exec(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.Regulation, tmpl.Authority, tmpl.NotificationType,
		tmpl.Subject, tmpl.Body, tmpl.IsDefault, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	return tx.Commit(ctx)
}

func (p *TemplateRepo) clearDefault(ctx context.Context, tx pgx.Tx, tmpl *domain.NotificationTemplate) error {
	_, err := tx.Exec(ctx, `
		UPDATE notification_templates
		SET is_default = FALSE, updated_at = NOW()
		WHERE regulation = $1 AND authority = $2 AND notification_type = $3
		  AND is_default = TRUE AND id <> $4
	`, tmpl.Regulation, tmpl.Authority, tmpl.NotificationType, tmpl.ID)
	return err
}

func (p *TemplateRepo) Get(ctx context.Context, id uuid.UUID) (*domain.NotificationTemplate, error) {
	const op = "postgres.Template.Get"

	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE id = $1`

	t, err := scanTemplate(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return t, nil
}

func (p *TemplateRepo) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	const op = "postgres.Template.List"

	rows, err := p.pool.Query(ctx, `SELECT `+templateColumns+` FROM notification_templates ORDER BY regulation, authority, notification_type, name`)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []domain.NotificationTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (p *TemplateRepo) Update(ctx context.Context, tmpl *domain.NotificationTemplate) error {
	const op = "postgres.Template.Update"

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	defer tx.Rollback(ctx)

	if tmpl.IsDefault {
		if err := p.clearDefault(ctx, tx, tmpl); err != nil {
			return e.WrapError(ctx, op, err)
		}
	}

	cmd, err := tx.Exec(ctx, `
		UPDATE notification_templates
		SET name = $2, subject = $3, body = $4, is_default = $5, updated_at = NOW()
		WHERE id = $1
	`, tmpl.ID, tmpl.Name, tmpl.Subject, tmpl.Body, tmpl.IsDefault)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", tmpl.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	return tx.Commit(ctx)
}

func (p *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Template.Delete"

	cmd, err := p.pool.Exec(ctx, `DELETE FROM notification_templates WHERE id = $1`, id)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

func (p *TemplateRepo) FindDefault(ctx context.Context, regulation domain.Regulation, authority domain.Authority, typ domain.NotificationType) (*domain.NotificationTemplate, error) {
	const op = "postgres.Template.FindDefault"

	query := `
		SELECT ` + templateColumns + `
		FROM notification_templates
		WHERE regulation = $1 AND authority = $2 AND notification_type = $3 AND is_default = TRUE
	`

	t, err := scanTemplate(p.pool.QueryRow(ctx, query, regulation, authority, typ))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return t, nil
}
