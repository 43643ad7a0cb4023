package models

import "time"

// System status labels derived from the health score.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// HealthSnapshot summarizes recent activity inside the current window.
// Recomputed on demand; no history is kept.
type HealthSnapshot struct {
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`
	TotalMeasurements int       `json:"total_measurements"`
	TotalDefects      int       `json:"total_defects"`
	CriticalCount     int       `json:"critical_count"`
	HighCount         int       `json:"high_count"`
	Score             int       `json:"score"` // 0..100
	Status            string    `json:"status"`
}
