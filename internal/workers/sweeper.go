package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

// NotificationStore is the slice of the notification repository the sweeper
// needs: the conditional flip of past-due pending/draft rows.
type NotificationStore interface {
	MarkOverdue(ctx context.Context, now time.Time) ([]domain.IncidentNotification, error)
}

type EventPublisher interface {
	Enqueue(ctx context.Context, event domain.ComplianceEvent) error
}

type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OverdueSweeper periodically flips past-due pending/draft notifications to
// the stored overdue marker. The flip is a conditional set-based write, so
// the sweeper is idempotent and safe to run alongside user actions: a row
// marked sent concurrently simply stops matching the WHERE clause, and a
// late "mark sent" on a flagged row wins because overdue is not terminal.
type OverdueSweeper struct {
	store    NotificationStore
	events   EventPublisher
	cache    StatsInvalidator
	clock    compliance.Clock
	interval time.Duration
	logger   *slog.Logger
}

func NewOverdueSweeper(
	store NotificationStore,
	events EventPublisher,
	cache StatsInvalidator,
	clock compliance.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *OverdueSweeper {
	return &OverdueSweeper{
		store:    store,
		events:   events,
		cache:    cache,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until the context is cancelled. Each tick is independent; a
// failed sweep is logged and the next tick retries from scratch, so the
// sweeper restarts cleanly after a crash.
func (w *OverdueSweeper) Run(ctx context.Context) {
	w.logger.Info("overdue sweeper started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue sweeper stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. "now" is read fresh from the clock on every pass,
// never cached.
func (w *OverdueSweeper) Sweep(ctx context.Context) int {
	now := w.clock.Now()

	flipped, err := w.store.MarkOverdue(ctx, now)
	if err != nil {
		w.logger.Error("overdue sweep failed", slog.Any("error", err))
		return 0
	}
	if len(flipped) == 0 {
		return 0
	}

	w.logger.Info("notifications flagged overdue", slog.Int("count", len(flipped)))

	// per-row event fan-out failures are logged and skipped; the flip itself
	// already landed
	for _, n := range flipped {
		if w.events == nil {
			break
		}
		event := domain.ComplianceEvent{
			Kind:           domain.EventNotificationOverdue,
			IncidentID:     n.IncidentID,
			NotificationID: &n.ID,
			Status:         string(domain.NotificationOverdue),
			OccurredAt:     now,
		}
		if err := w.events.Enqueue(ctx, event); err != nil {
			w.logger.Error("enqueue overdue event failed",
				slog.String("notification_id", n.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(ctx); err != nil {
			w.logger.Warn("stats cache invalidate failed", slog.Any("error", err))
		}
	}
	return len(flipped)
}
