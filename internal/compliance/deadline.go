package compliance

import "time"

// Clock abstracts wall-clock reads so deadline math is deterministic under
// test. Every evaluation reads Now fresh; nothing caches time at startup.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// ComputeDueAt derives the absolute deadline from detection time and the
// regulation's window. Minute granularity; the due timestamp is immutable
// once a notification is created.
func ComputeDueAt(detectedAt time.Time, deadlineHours int) time.Time {
	return detectedAt.Add(time.Duration(deadlineHours) * time.Hour).Truncate(time.Minute)
}

// HoursRemaining returns the signed hours between now and dueAt. Negative
// means overdue. Callers round for display.
func HoursRemaining(dueAt, now time.Time) float64 {
	return dueAt.Sub(now).Minutes() / 60
}

// PastDue reports whether the deadline has passed at the given instant.
func PastDue(dueAt, now time.Time) bool {
	return now.After(dueAt)
}
