package service

import (
	"context"
	"fmt"
	"math"

	"trackmonitor/internal/hub"
	"trackmonitor/internal/logger"
	"trackmonitor/internal/metrics"
	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

// ValidationError rejects a malformed or out-of-range measurement before it
// reaches evaluation. Rejected measurements are never persisted or broadcast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid measurement: %s %s", e.Field, e.Reason)
}

// Broadcaster is the hub surface the pipeline publishes to.
type Broadcaster interface {
	Broadcast(cat hub.Category, msgType string, data any)
	BroadcastPriority(cat hub.Category, msgType string, data any)
}

// ReadingStore mirrors the latest reading per sensor; best-effort.
type ReadingStore interface {
	StoreLatest(ctx context.Context, m models.Measurement) error
}

// IngestResult reports what happened to one measurement. Broadcast is not
// part of the result: it happens regardless of the persistence outcome.
type IngestResult struct {
	Persisted bool                `json:"persisted"`
	Defect    *models.DefectEvent `json:"defect,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// IngestService validates, evaluates, records, persists, and broadcasts
// measurements. Safe for concurrent producers.
type IngestService struct {
	evaluator    *Evaluator
	health       *HealthAggregator
	measurements repository.MeasurementRepo
	defects      repository.DefectRepo
	hub          Broadcaster
	cache        ReadingStore // may be nil
	log          *logger.Logger
	trackLength  float64
}

func NewIngestService(
	evaluator *Evaluator,
	health *HealthAggregator,
	measurements repository.MeasurementRepo,
	defects repository.DefectRepo,
	broadcaster Broadcaster,
	cache ReadingStore,
	log *logger.Logger,
	trackLength float64,
) *IngestService {
	return &IngestService{
		evaluator:    evaluator,
		health:       health,
		measurements: measurements,
		defects:      defects,
		hub:          broadcaster,
		cache:        cache,
		log:          log,
		trackLength:  trackLength,
	}
}

// Ingest runs one measurement through the full pipeline. A ValidationError
// stops everything; a persistence failure is reported via Persisted=false but
// never prevents the broadcast.
func (s *IngestService) Ingest(ctx context.Context, m models.Measurement) (IngestResult, error) {
	if err := s.validate(m); err != nil {
		metrics.MeasurementsRejected.Inc()
		s.log.Infow("ingest_rejected", "sensor_id", m.SensorID, "type", string(m.Type), "err", err)
		return IngestResult{}, err
	}

	defect := s.evaluator.Evaluate(m)

	s.health.RecordMeasurement(m)
	if defect != nil {
		s.health.RecordDefect(*defect)
		metrics.DefectsDetected.WithLabelValues(string(defect.DefectType), defect.Severity.String()).Inc()
	}
	metrics.MeasurementsIngested.WithLabelValues(string(m.Type)).Inc()

	persisted := s.persist(ctx, &m, defect)

	s.mirrorLatest(ctx, m)
	s.hub.Broadcast(hub.CategorySensorData, hub.TypeSensorData, m)
	if defect != nil {
		s.hub.BroadcastPriority(hub.CategoryDefectAlert, hub.TypeDefectAlert, defect)
	}

	return IngestResult{Persisted: persisted, Defect: defect}, nil
}

// IngestBatch applies the per-item pipeline and publishes one aggregated
// batch event plus individual defect alerts. Items that fail validation are
// reported in their result slot; the rest of the batch proceeds.
func (s *IngestService) IngestBatch(ctx context.Context, measurements []models.Measurement) []IngestResult {
	results := make([]IngestResult, len(measurements))
	accepted := make([]models.Measurement, 0, len(measurements))

	for i, m := range measurements {
		if err := s.validate(m); err != nil {
			metrics.MeasurementsRejected.Inc()
			results[i] = IngestResult{Error: err.Error()}
			continue
		}

		defect := s.evaluator.Evaluate(m)
		s.health.RecordMeasurement(m)
		if defect != nil {
			s.health.RecordDefect(*defect)
			metrics.DefectsDetected.WithLabelValues(string(defect.DefectType), defect.Severity.String()).Inc()
		}
		metrics.MeasurementsIngested.WithLabelValues(string(m.Type)).Inc()

		persisted := s.persist(ctx, &m, defect)
		s.mirrorLatest(ctx, m)
		accepted = append(accepted, m)

		results[i] = IngestResult{Persisted: persisted, Defect: defect}
		if defect != nil {
			s.hub.BroadcastPriority(hub.CategoryDefectAlert, hub.TypeDefectAlert, defect)
		}
	}

	if len(accepted) > 0 {
		s.hub.Broadcast(hub.CategorySensorData, hub.TypeBatchMeasurements, map[string]any{
			"items": accepted,
			"count": len(accepted),
		})
	}
	return results
}

// persist writes the measurement and any defect. Failures are logged and
// reported, never propagated: broadcast must still happen.
func (s *IngestService) persist(ctx context.Context, m *models.Measurement, defect *models.DefectEvent) bool {
	id, err := s.measurements.Save(ctx, *m)
	if err != nil {
		metrics.PersistFailures.Inc()
		s.log.Errorw("persist_failed", "kind", "measurement", "sensor_id", m.SensorID, "err", err)
		return false
	}
	m.ID = id

	if defect != nil {
		defect.MeasurementID = id
		defectID, err := s.defects.Save(ctx, *defect)
		if err != nil {
			metrics.PersistFailures.Inc()
			s.log.Errorw("persist_failed", "kind", "defect", "defect_type", string(defect.DefectType), "err", err)
			return false
		}
		defect.ID = defectID
	}
	return true
}

func (s *IngestService) mirrorLatest(ctx context.Context, m models.Measurement) {
	if s.cache == nil {
		return
	}
	if err := s.cache.StoreLatest(ctx, m); err != nil {
		s.log.Infow("cache_store_failed", "sensor_id", m.SensorID, "err", err)
	}
}

// Loose physical sanity bounds per measurement type. Values outside these are
// sensor faults, not readings; they are rejected, never clamped.
func (s *IngestService) validate(m models.Measurement) error {
	if m.SensorID == "" {
		return &ValidationError{Field: "sensor_id", Reason: "is required"}
	}
	if m.Type == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if math.IsNaN(m.Chainage) || m.Chainage < 0 || m.Chainage > s.trackLength {
		return &ValidationError{Field: "chainage", Reason: fmt.Sprintf("must be within [0, %.0f]", s.trackLength)}
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return &ValidationError{Field: "value", Reason: "must be a finite number"}
	}
	if m.Quality != nil && (math.IsNaN(*m.Quality) || *m.Quality < 0 || *m.Quality > 1) {
		return &ValidationError{Field: "quality", Reason: "must be within [0, 1]"}
	}

	switch m.Type {
	case models.TypeGauge:
		if m.Value < 1.0 || m.Value > 2.5 {
			return &ValidationError{Field: "value", Reason: "gauge must be within [1.0, 2.5] meters"}
		}
	case models.TypeAcceleration:
		if math.Abs(m.Value) > 50 {
			return &ValidationError{Field: "value", Reason: "acceleration must be within [-50, 50] g"}
		}
	case models.TypeAlignment, models.TypeVertical, models.TypeLateral,
		models.TypeTwist, models.TypeCant, models.TypeLevel, models.TypeProfile:
		if math.Abs(m.Value) > 500 {
			return &ValidationError{Field: "value", Reason: "geometry reading must be within [-500, 500] mm"}
		}
	}
	return nil
}
