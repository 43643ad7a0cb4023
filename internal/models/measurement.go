package models

import "time"

// MeasurementType identifies the geometry or dynamics channel a reading
// belongs to.
type MeasurementType string

const (
	TypeGauge        MeasurementType = "gauge"
	TypeAlignment    MeasurementType = "alignment"
	TypeAcceleration MeasurementType = "acceleration"
	TypeProfile      MeasurementType = "profile"
	TypeVertical     MeasurementType = "vertical"
	TypeLateral      MeasurementType = "lateral"
	TypeTwist        MeasurementType = "twist"
	TypeCant         MeasurementType = "cant"
	TypeLevel        MeasurementType = "level"
)

// MeasurementTypes lists every recognized measurement type.
var MeasurementTypes = []MeasurementType{
	TypeGauge, TypeAlignment, TypeAcceleration, TypeProfile,
	TypeVertical, TypeLateral, TypeTwist, TypeCant, TypeLevel,
}

// Measurement is a single track-sensor reading. Immutable once created.
type Measurement struct {
	ID        int64           `json:"id,omitempty"`
	Chainage  float64         `json:"chainage"` // meters along the track
	Timestamp time.Time       `json:"timestamp"`
	Type      MeasurementType `json:"type"`
	Value     float64         `json:"value"`
	SensorID  string          `json:"sensor_id"`
	Quality   *float64        `json:"quality,omitempty"` // 0..1 data quality score
	SpeedKmh  *float64        `json:"speed_kmh,omitempty"`
}
