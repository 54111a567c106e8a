package compliance

import (
	"sort"
	"time"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

// RecentIncidentLimit caps the ranked incident list on the dashboard.
const RecentIncidentLimit = 5

// RankIncidents sorts a copy of the slice by severity rank ascending
// (critical first), then detection time descending. This is the ordering
// used on every list surface.
func RankIncidents(incidents []domain.Incident) []domain.Incident {
	out := make([]domain.Incident, len(incidents))
	copy(out, incidents)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := domain.SeverityRank(out[i].Severity), domain.SeverityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out
}

// BuildDashboardStats computes the compliance read model. Overdue counts use
// the computed predicate, not the stored flag, so the dashboard never lags a
// sweep cycle. Zero incidents yields zeroed stats with a null average.
func BuildDashboardStats(incidents []domain.Incident, notifications []domain.IncidentNotification, now time.Time) *domain.DashboardStats {
	stats := &domain.DashboardStats{
		BySeverity:      map[string]int{},
		ByType:          map[string]int{},
		ByStatus:        map[string]int{},
		RecentIncidents: []domain.Incident{},
	}

	var resolutionHours float64
	var resolvedCount int
	for _, inc := range incidents {
		stats.TotalIncidents++
		if inc.IsOpen() {
			stats.OpenIncidents++
		}
		stats.BySeverity[string(inc.Severity)]++
		stats.ByType[string(inc.Type)]++
		stats.ByStatus[string(inc.Status)]++

		if inc.ResolvedAt != nil {
			resolutionHours += inc.ResolvedAt.Sub(inc.DetectedAt).Hours()
			resolvedCount++
		}
	}
	if resolvedCount > 0 {
		avg := resolutionHours / float64(resolvedCount)
		stats.AverageResolutionTimeHours = &avg
	}

	for _, n := range notifications {
		if n.IsOverdue(now) {
			stats.OverdueNotifications++
			continue
		}
		switch n.Status {
		case domain.NotificationPending, domain.NotificationDraft:
			stats.PendingNotifications++
		}
	}

	ranked := RankIncidents(incidents)
	if len(ranked) > RecentIncidentLimit {
		ranked = ranked[:RecentIncidentLimit]
	}
	stats.RecentIncidents = ranked

	return stats
}
