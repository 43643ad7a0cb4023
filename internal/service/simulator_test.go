package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
)

type ingestorStub struct {
	mu       sync.Mutex
	readings []models.Measurement
}

func (s *ingestorStub) Ingest(ctx context.Context, m models.Measurement) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, m)
	return IngestResult{Persisted: true}, nil
}

func (s *ingestorStub) snapshot() []models.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Measurement(nil), s.readings...)
}

func TestSimulator_EmitsThroughPipeline(t *testing.T) {
	t.Parallel()
	stub := &ingestorStub{}
	sim := NewSimulatorService(stub, logger.Get(logger.ErrorLevel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(stub.snapshot()) < 6 {
		if time.Now().After(deadline) {
			t.Fatal("simulator produced no readings")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	readings := stub.snapshot()
	bySensor := map[string]models.MeasurementType{}
	for _, m := range readings {
		bySensor[m.SensorID] = m.Type
	}
	want := map[string]models.MeasurementType{
		sensorLaserFront: models.TypeGauge,
		sensorLaserSide:  models.TypeAlignment,
		sensorIMUAxle:    models.TypeAcceleration,
	}
	for sensor, typ := range want {
		if bySensor[sensor] != typ {
			t.Errorf("sensor %s: want type %s, got %s", sensor, typ, bySensor[sensor])
		}
	}

	// Chainage advances between ticks and readings within one tick share it.
	first, last := readings[0], readings[len(readings)-1]
	if last.Chainage <= first.Chainage {
		t.Errorf("chainage did not advance: first %.2f, last %.2f", first.Chainage, last.Chainage)
	}
	if readings[0].Chainage != readings[1].Chainage || readings[1].Chainage != readings[2].Chainage {
		t.Errorf("readings of one tick must share chainage: %.2f %.2f %.2f",
			readings[0].Chainage, readings[1].Chainage, readings[2].Chainage)
	}
	for _, m := range readings {
		if m.Timestamp.IsZero() {
			t.Error("simulator reading missing timestamp")
		}
	}
}
