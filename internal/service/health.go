package service

import (
	"sync"
	"time"

	"trackmonitor/internal/models"
)

// Health score penalties.
const (
	criticalPenalty  = 20
	highPenalty      = 10
	stalenessPenalty = 30

	// staleAfter is the sub-window: no measurement within it means the
	// system is probably not receiving data.
	staleAfter = time.Hour
)

// Status thresholds over the score.
const (
	healthyAbove = 70
	warningAbove = 40
)

// HealthAggregator keeps rolling counts over a fixed wall-clock window and
// derives a 0-100 score on demand. The window resets lazily when a call
// arrives past the boundary; there is no background timer racing with reads.
// Safe for concurrent use.
type HealthAggregator struct {
	mu sync.Mutex

	window      time.Duration
	windowStart time.Time

	total    int
	defects  int
	critical int
	high     int

	lastMeasurement time.Time

	now func() time.Time // overridable in tests
}

func NewHealthAggregator(window time.Duration) *HealthAggregator {
	if window <= 0 {
		window = 24 * time.Hour
	}
	h := &HealthAggregator{window: window, now: time.Now}
	h.windowStart = h.now().UTC()
	return h
}

// RecordMeasurement counts one ingested measurement.
func (h *HealthAggregator) RecordMeasurement(m models.Measurement) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maybeReset()
	h.total++
	h.lastMeasurement = h.now().UTC()
}

// RecordDefect counts one detected defect.
func (h *HealthAggregator) RecordDefect(d models.DefectEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maybeReset()
	h.defects++
	switch d.Severity {
	case models.SeverityCritical:
		h.critical++
	case models.SeverityHigh:
		h.high++
	}
}

// Snapshot recomputes the health snapshot from the current counts.
func (h *HealthAggregator) Snapshot() models.HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maybeReset()

	now := h.now().UTC()
	score := 100 - criticalPenalty*h.critical - highPenalty*h.high
	if h.lastMeasurement.IsZero() || now.Sub(h.lastMeasurement) > staleAfter {
		score -= stalenessPenalty
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.HealthSnapshot{
		WindowStart:       h.windowStart,
		WindowEnd:         now,
		TotalMeasurements: h.total,
		TotalDefects:      h.defects,
		CriticalCount:     h.critical,
		HighCount:         h.high,
		Score:             score,
		Status:            statusFor(score),
	}
}

// maybeReset starts a fresh window once the current one has fully elapsed.
// Caller must hold h.mu.
func (h *HealthAggregator) maybeReset() {
	now := h.now().UTC()
	if now.Sub(h.windowStart) <= h.window {
		return
	}
	h.windowStart = now
	h.total = 0
	h.defects = 0
	h.critical = 0
	h.high = 0
}

func statusFor(score int) string {
	switch {
	case score > healthyAbove:
		return models.StatusHealthy
	case score > warningAbove:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}
