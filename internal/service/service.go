package service

import (
	"context"
	"time"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

// Ingest runs measurements through the pipeline.
type Ingest interface {
	Ingest(ctx context.Context, m models.Measurement) (IngestResult, error)
	IngestBatch(ctx context.Context, measurements []models.Measurement) []IngestResult
}

// Readings exposes measurement queries.
type Readings interface {
	List(ctx context.Context, f repository.MeasurementFilter) ([]models.Measurement, error)
	Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error)
	Sensors(ctx context.Context) ([]string, error)
}

// Defects exposes defect queries and the review lifecycle.
type Defects interface {
	List(ctx context.Context, f repository.DefectFilter) ([]models.DefectEvent, error)
	Review(ctx context.Context, id int64, reviewer string) error
}

// Status exposes the rolling health snapshot and its broadcast loop.
type Status interface {
	Snapshot() models.HealthSnapshot
	Run(ctx context.Context, interval time.Duration)
}

// Simulator runs the synthetic sensor feed. Stop via context cancellation.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Ingest
	Readings
	Defects
	Status
	Simulator
}

// Deps collects everything the service layer is wired from.
type Deps struct {
	Repos       *repository.Repository
	Hub         Broadcaster
	Cache       ReadingCache // may be nil
	Log         *logger.Logger
	Evaluator   *Evaluator
	Health      *HealthAggregator
	TrackLength float64
}

// ReadingCache joins the store and read sides of the latest-reading cache.
type ReadingCache interface {
	ReadingStore
	LatestReader
}

// NewService wires the repository layer, hub, and cache into concrete services.
func NewService(d Deps) *Service {
	var store ReadingStore
	var reader LatestReader
	if d.Cache != nil {
		store = d.Cache
		reader = d.Cache
	}

	ingest := NewIngestService(
		d.Evaluator, d.Health,
		d.Repos.Measurements, d.Repos.Defects,
		d.Hub, store, d.Log, d.TrackLength,
	)

	return &Service{
		Ingest:    ingest,
		Readings:  NewReadingService(d.Repos.Measurements, reader, d.Log),
		Defects:   NewDefectService(d.Repos.Defects),
		Status:    NewStatusService(d.Health, d.Hub),
		Simulator: NewSimulatorService(ingest, d.Log),
	}
}
