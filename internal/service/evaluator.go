package service

import (
	"fmt"
	"math"
	"time"

	"trackmonitor/internal/config"
	"trackmonitor/internal/models"
)

// NominalGaugeM is the standard track gauge in meters.
const NominalGaugeM = 1.676

// speedRelaxFactor scales the gauge tolerance relaxation above the speed
// threshold: rails widen slightly under fast traffic, so a proportional share
// of the overspeed is granted back as tolerance.
const speedRelaxFactor = 0.1

// Evaluator turns measurements into defect events using a fixed thresholds
// snapshot. The snapshot is taken at construction; evaluation never reads
// mutable configuration, so concurrent calls are safe by construction.
type Evaluator struct {
	th config.Thresholds
}

func NewEvaluator(th config.Thresholds) *Evaluator {
	return &Evaluator{th: th}
}

// Evaluate returns a defect event when the measurement violates its
// engineering bound, or nil. Unknown measurement types never produce a
// defect and never error.
func (e *Evaluator) Evaluate(m models.Measurement) *models.DefectEvent {
	switch m.Type {
	case models.TypeGauge:
		return e.evaluateGauge(m)
	case models.TypeAcceleration:
		return e.evaluateVibration(m)
	case models.TypeAlignment, models.TypeLateral:
		return e.evaluateBound(m, e.th.AlignmentLimitMM, models.DefectAlignmentFault)
	case models.TypeVertical, models.TypeLevel:
		return e.evaluateBound(m, e.th.VerticalLimitMM, models.DefectVerticalFault)
	case models.TypeTwist:
		return e.evaluateBound(m, e.th.TwistLimitMM, models.DefectTwistFault)
	case models.TypeCant:
		return e.evaluateBound(m, e.th.CantLimitMM, models.DefectCantFault)
	default:
		return nil
	}
}

// evaluateGauge flags deviation from nominal gauge beyond the configured
// tolerance. Above the speed threshold the tolerance is relaxed
// proportionally before the check.
func (e *Evaluator) evaluateGauge(m models.Measurement) *models.DefectEvent {
	tolerance := e.th.GaugeToleranceM
	if m.SpeedKmh != nil && e.th.SpeedThresholdKmh > 0 && *m.SpeedKmh > e.th.SpeedThresholdKmh {
		over := (*m.SpeedKmh - e.th.SpeedThresholdKmh) / e.th.SpeedThresholdKmh
		tolerance *= 1 + speedRelaxFactor*over
	}

	deviation := m.Value - NominalGaugeM
	severity, ok := severityForExcess(math.Abs(deviation), tolerance)
	if !ok {
		return nil
	}

	defectType := models.DefectGaugeExcess
	if deviation < 0 {
		defectType = models.DefectGaugeDeficiency
	}
	return e.newDefect(m, defectType, severity,
		fmt.Sprintf("gauge %.4f m deviates %.4f m from nominal %.3f m (tolerance %.4f m)",
			m.Value, deviation, NominalGaugeM, tolerance))
}

// evaluateVibration flags acceleration spikes over the vibration threshold.
func (e *Evaluator) evaluateVibration(m models.Measurement) *models.DefectEvent {
	severity, ok := severityForExcess(math.Abs(m.Value), e.th.VibrationThreshold)
	if !ok {
		return nil
	}
	return e.newDefect(m, models.DefectRailWear, severity,
		fmt.Sprintf("vibration %.3f g exceeds threshold %.3f g", math.Abs(m.Value), e.th.VibrationThreshold))
}

// evaluateBound flags |value| beyond a millimeter limit for geometry channels.
func (e *Evaluator) evaluateBound(m models.Measurement, limitMM float64, defectType models.DefectType) *models.DefectEvent {
	severity, ok := severityForExcess(math.Abs(m.Value), limitMM)
	if !ok {
		return nil
	}
	return e.newDefect(m, defectType, severity,
		fmt.Sprintf("%s %.2f mm exceeds limit %.2f mm", m.Type, math.Abs(m.Value), limitMM))
}

// severityForExcess tiers severity by how many multiples of the limit the
// magnitude reaches. Below or at the limit there is no defect at all.
func severityForExcess(magnitude, limit float64) (models.Severity, bool) {
	if limit <= 0 || math.IsNaN(magnitude) || magnitude <= limit {
		return 0, false
	}
	switch {
	case magnitude > 5*limit:
		return models.SeverityCritical, true
	case magnitude > 3*limit:
		return models.SeverityHigh, true
	case magnitude > 2*limit:
		return models.SeverityMedium, true
	default:
		return models.SeverityLow, true
	}
}

func (e *Evaluator) newDefect(m models.Measurement, defectType models.DefectType, severity models.Severity, description string) *models.DefectEvent {
	return &models.DefectEvent{
		Chainage:      m.Chainage,
		DefectType:    defectType,
		Severity:      severity,
		MeasurementID: m.ID,
		Description:   description,
		GeneratedAt:   time.Now().UTC(),
	}
}
