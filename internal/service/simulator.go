package service

import (
	"context"
	"math/rand"
	"time"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
)

// ----------- Simulation constants -----------
const (
	chainageStepM = 0.25 // advance per tick

	gaugeNoiseSigma = 0.02 // meters
	accelSigma      = 0.5  // g, lateral acceleration
	alignmentSigma  = 2.0  // mm
)

// Simulated sensor ids, matching the hardware naming scheme.
const (
	sensorLaserFront = "laser_front"
	sensorLaserSide  = "laser_side"
	sensorIMUAxle    = "imu_axle"
)

// Ingestor is the pipeline surface the simulator feeds.
type Ingestor interface {
	Ingest(ctx context.Context, m models.Measurement) (IngestResult, error)
}

// SimulatorService produces a synthetic sensor stream through the real
// ingestion pipeline. Demo/test aid; disabled by default.
type SimulatorService struct {
	pipeline Ingestor
	log      *logger.Logger
	rng      *rand.Rand
	chainage float64
}

func NewSimulatorService(pipeline Ingestor, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		pipeline: pipeline,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run emits one batch of readings per tick until ctx is cancelled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	t := time.NewTicker(tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.emit(ctx, now.UTC())
			s.chainage += chainageStepM
		}
	}
}

func (s *SimulatorService) emit(ctx context.Context, now time.Time) {
	readings := []models.Measurement{
		{
			Chainage:  s.chainage,
			Timestamp: now,
			Type:      models.TypeGauge,
			Value:     NominalGaugeM + s.rng.NormFloat64()*gaugeNoiseSigma,
			SensorID:  sensorLaserFront,
		},
		{
			Chainage:  s.chainage,
			Timestamp: now,
			Type:      models.TypeAcceleration,
			Value:     s.rng.NormFloat64() * accelSigma,
			SensorID:  sensorIMUAxle,
		},
		{
			Chainage:  s.chainage,
			Timestamp: now,
			Type:      models.TypeAlignment,
			Value:     s.rng.NormFloat64() * alignmentSigma,
			SensorID:  sensorLaserSide,
		},
	}

	for _, m := range readings {
		if _, err := s.pipeline.Ingest(ctx, m); err != nil {
			s.log.Infow("simulator_ingest_failed", "type", string(m.Type), "err", err)
		}
	}
}
