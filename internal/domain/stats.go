package domain

// DashboardStats is the derived compliance read model. It is never
// persisted; the aggregator rebuilds it from the incident and notification
// collections on demand.
type DashboardStats struct {
	TotalIncidents             int            `json:"total_incidents"`
	OpenIncidents              int            `json:"open_incidents"`
	BySeverity                 map[string]int `json:"by_severity"`
	ByType                     map[string]int `json:"by_type"`
	ByStatus                   map[string]int `json:"by_status"`
	OverdueNotifications       int            `json:"overdue_notifications"`
	PendingNotifications       int            `json:"pending_notifications"`
	RecentIncidents            []Incident     `json:"recent_incidents"`
	AverageResolutionTimeHours *float64       `json:"average_resolution_time_hours"`
}
