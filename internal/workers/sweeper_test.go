package workers_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/workers"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// memStore mimics the repository's conditional set-based update over an
// in-memory map.
type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.IncidentNotification
	err  error
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]*domain.IncidentNotification{}}
}

func (s *memStore) add(n domain.IncidentNotification) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	s.rows[n.ID] = &n
	return n.ID
}

func (s *memStore) get(id uuid.UUID) domain.IncidentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rows[id]
}

func (s *memStore) markSent(id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.rows[id]
	if !n.Status.Sendable() {
		return errors.New("not sendable")
	}
	n.Status = domain.NotificationSent
	n.SentAt = &now
	return nil
}

func (s *memStore) MarkOverdue(_ context.Context, now time.Time) ([]domain.IncidentNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var flipped []domain.IncidentNotification
	for _, n := range s.rows {
		switch n.Status {
		case domain.NotificationPending, domain.NotificationDraft:
			if now.After(n.DueAt) {
				n.Status = domain.NotificationOverdue
				flipped = append(flipped, *n)
			}
		}
	}
	return flipped, nil
}

type memQueue struct {
	mu     sync.Mutex
	events []domain.ComplianceEvent
	err    error
}

func (q *memQueue) Enqueue(_ context.Context, event domain.ComplianceEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, event)
	return nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newSweeper(store workers.NotificationStore, queue workers.EventPublisher, now time.Time) *workers.OverdueSweeper {
	return workers.NewOverdueSweeper(store, queue, nil, fixedClock{now: now}, time.Minute, discardLogger())
}

func TestSweep_FlagsPastDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	queue := &memQueue{}

	pastDue := store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationPending,
		DueAt:      now.Add(-time.Hour),
	})
	inTime := store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationPending,
		DueAt:      now.Add(time.Hour),
	})
	alreadySent := store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationSent,
		DueAt:      now.Add(-time.Hour),
	})

	sw := newSweeper(store, queue, now)
	if got := sw.Sweep(context.Background()); got != 1 {
		t.Fatalf("expected 1 flip, got %d", got)
	}

	if got := store.get(pastDue).Status; got != domain.NotificationOverdue {
		t.Fatalf("past-due row: expected overdue, got %s", got)
	}
	if got := store.get(inTime).Status; got != domain.NotificationPending {
		t.Fatalf("in-time row: expected pending, got %s", got)
	}
	if got := store.get(alreadySent).Status; got != domain.NotificationSent {
		t.Fatalf("sent row must be untouched, got %s", got)
	}
	if queue.len() != 1 {
		t.Fatalf("expected 1 overdue event, got %d", queue.len())
	}
}

func TestSweep_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	queue := &memQueue{}

	store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationDraft,
		DueAt:      now.Add(-time.Hour),
	})

	sw := newSweeper(store, queue, now)
	if got := sw.Sweep(context.Background()); got != 1 {
		t.Fatalf("first sweep: expected 1 flip, got %d", got)
	}
	if got := sw.Sweep(context.Background()); got != 0 {
		t.Fatalf("second sweep must be a no-op, got %d flips", got)
	}
	if queue.len() != 1 {
		t.Fatalf("second sweep must not re-emit events, got %d", queue.len())
	}
}

func TestSweep_LateSendWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()

	id := store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationPending,
		DueAt:      now.Add(-time.Hour),
	})

	sw := newSweeper(store, &memQueue{}, now)
	sw.Sweep(context.Background())

	if got := store.get(id).Status; got != domain.NotificationOverdue {
		t.Fatalf("expected overdue after sweep, got %s", got)
	}

	// overdue is not terminal: the late send succeeds and sticks
	if err := store.markSent(id, now); err != nil {
		t.Fatalf("late send failed: %v", err)
	}
	if got := store.get(id).Status; got != domain.NotificationSent {
		t.Fatalf("expected sent after late send, got %s", got)
	}

	// a subsequent sweep must not drag the sent row back to overdue
	sw.Sweep(context.Background())
	if got := store.get(id).Status; got != domain.NotificationSent {
		t.Fatalf("sweep after send: expected sent, got %s", got)
	}
}

func TestSweep_StoreErrorLoggedNotFatal(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.err = errors.New("db down")

	sw := newSweeper(store, &memQueue{}, time.Now().UTC())
	if got := sw.Sweep(context.Background()); got != 0 {
		t.Fatalf("expected 0 flips on store error, got %d", got)
	}

	// the next pass recovers once the store is healthy again
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	store.add(domain.IncidentNotification{
		IncidentID: uuid.New(),
		Status:     domain.NotificationPending,
		DueAt:      time.Now().UTC().Add(-time.Hour),
	})
	if got := sw.Sweep(context.Background()); got != 1 {
		t.Fatalf("expected recovery sweep to flip 1, got %d", got)
	}
}

func TestSweep_EnqueueFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	queue := &memQueue{err: errors.New("queue down")}

	a := store.add(domain.IncidentNotification{IncidentID: uuid.New(), Status: domain.NotificationPending, DueAt: now.Add(-time.Hour)})
	b := store.add(domain.IncidentNotification{IncidentID: uuid.New(), Status: domain.NotificationDraft, DueAt: now.Add(-2 * time.Hour)})

	sw := newSweeper(store, queue, now)
	if got := sw.Sweep(context.Background()); got != 2 {
		t.Fatalf("expected 2 flips despite queue failure, got %d", got)
	}
	for _, id := range []uuid.UUID{a, b} {
		if got := store.get(id).Status; got != domain.NotificationOverdue {
			t.Fatalf("row %s: expected overdue, got %s", id, got)
		}
	}
}
