package models

import "time"

// DefectType classifies a detected track anomaly.
type DefectType string

const (
	DefectGaugeExcess     DefectType = "gauge_excess"
	DefectGaugeDeficiency DefectType = "gauge_deficiency"
	DefectAlignmentFault  DefectType = "alignment_fault"
	DefectVerticalFault   DefectType = "vertical_fault"
	DefectTwistFault      DefectType = "twist_fault"
	DefectCantFault       DefectType = "cant_fault"
	DefectRailWear        DefectType = "rail_wear"
	DefectJoint           DefectType = "joint_defect"
	DefectSleeper         DefectType = "sleeper_defect"
	DefectBallast         DefectType = "ballast_defect"
)

// Severity is the ordinal seriousness of a defect.
type Severity int

const (
	SeverityLow      Severity = 1
	SeverityMedium   Severity = 2
	SeverityHigh     Severity = 3
	SeverityCritical Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// DefectEvent is produced by the threshold evaluator when a measurement
// violates its engineering bound. Never mutated after creation; the review
// fields belong to the persistence lifecycle, not the evaluator.
type DefectEvent struct {
	ID            int64      `json:"id,omitempty"`
	Chainage      float64    `json:"chainage"`
	DefectType    DefectType `json:"defect_type"`
	Severity      Severity   `json:"severity"`
	MeasurementID int64      `json:"measurement_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`

	Reviewed   bool       `json:"reviewed"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
