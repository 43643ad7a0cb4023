package service

import (
	"sync"
	"testing"
	"time"

	"trackmonitor/internal/models"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestHealthAggregator_ScoreWithinBounds(t *testing.T) {
	t.Parallel()
	h := NewHealthAggregator(24 * time.Hour)

	// Pile on enough critical defects to push past the floor.
	for i := 0; i < 20; i++ {
		h.RecordMeasurement(models.Measurement{Type: models.TypeGauge})
		h.RecordDefect(models.DefectEvent{Severity: models.SeverityCritical})
	}

	snap := h.Snapshot()
	if snap.Score < 0 || snap.Score > 100 {
		t.Fatalf("score out of bounds: %d", snap.Score)
	}
	if snap.Score != 0 {
		t.Errorf("expected floored score 0, got %d", snap.Score)
	}
	if snap.Status != models.StatusCritical {
		t.Errorf("expected critical status, got %s", snap.Status)
	}
	if snap.CriticalCount != 20 || snap.TotalDefects != 20 || snap.TotalMeasurements != 20 {
		t.Errorf("unexpected counts: %+v", snap)
	}
}

func TestHealthAggregator_Penalties(t *testing.T) {
	t.Parallel()
	h := NewHealthAggregator(24 * time.Hour)

	h.RecordMeasurement(models.Measurement{Type: models.TypeGauge})
	h.RecordDefect(models.DefectEvent{Severity: models.SeverityCritical})
	h.RecordDefect(models.DefectEvent{Severity: models.SeverityHigh})
	h.RecordDefect(models.DefectEvent{Severity: models.SeverityLow}) // no score penalty

	snap := h.Snapshot()
	if want := 100 - 20 - 10; snap.Score != want {
		t.Errorf("score: want %d, got %d", want, snap.Score)
	}
	if snap.Status != models.StatusWarning {
		t.Errorf("status: want warning, got %s", snap.Status)
	}
	if snap.TotalDefects != 3 {
		t.Errorf("total defects: want 3, got %d", snap.TotalDefects)
	}
}

func TestHealthAggregator_StalenessPenalty(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	h := NewHealthAggregator(24 * time.Hour)
	h.now = fixedClock(base)
	h.windowStart = base

	// Nothing recorded at all: staleness applies immediately.
	if snap := h.Snapshot(); snap.Score != 70 {
		t.Fatalf("empty aggregator score: want 70, got %d", snap.Score)
	}

	h.RecordMeasurement(models.Measurement{Type: models.TypeGauge})
	if snap := h.Snapshot(); snap.Score != 100 {
		t.Fatalf("fresh measurement score: want 100, got %d", snap.Score)
	}

	// Move past the staleness sub-window but stay inside the main window.
	h.now = fixedClock(base.Add(2 * time.Hour))
	if snap := h.Snapshot(); snap.Score != 70 {
		t.Fatalf("stale score: want 70, got %d", snap.Score)
	}
}

func TestHealthAggregator_LazyWindowReset(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	h := NewHealthAggregator(24 * time.Hour)
	h.now = fixedClock(base)
	h.windowStart = base

	h.RecordMeasurement(models.Measurement{Type: models.TypeGauge})
	h.RecordDefect(models.DefectEvent{Severity: models.SeverityCritical})

	// Query past the window boundary: counts reset lazily.
	h.now = fixedClock(base.Add(25 * time.Hour))
	snap := h.Snapshot()
	if snap.TotalMeasurements != 0 || snap.TotalDefects != 0 || snap.CriticalCount != 0 {
		t.Fatalf("expected reset counts, got %+v", snap)
	}
	if !snap.WindowStart.Equal(base.Add(25 * time.Hour)) {
		t.Errorf("window start not advanced: %v", snap.WindowStart)
	}
	// Old critical defect no longer penalizes; staleness does.
	if snap.Score != 70 {
		t.Errorf("score after reset: want 70, got %d", snap.Score)
	}
}

func TestHealthAggregator_ConcurrentRecords(t *testing.T) {
	t.Parallel()
	h := NewHealthAggregator(24 * time.Hour)

	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				h.RecordMeasurement(models.Measurement{Type: models.TypeGauge})
				h.RecordDefect(models.DefectEvent{Severity: models.SeverityHigh})
			}
		}()
	}
	wg.Wait()

	snap := h.Snapshot()
	if snap.TotalMeasurements != workers*perWorker {
		t.Errorf("measurements lost: want %d, got %d", workers*perWorker, snap.TotalMeasurements)
	}
	if snap.HighCount != workers*perWorker {
		t.Errorf("defects lost: want %d, got %d", workers*perWorker, snap.HighCount)
	}
}
