package service

import (
	"context"
	"time"

	"trackmonitor/internal/hub"
	"trackmonitor/internal/models"
)

// StatusService exposes the rolling health snapshot and periodically pushes
// it to system_status subscribers.
type StatusService struct {
	health *HealthAggregator
	hub    Broadcaster
}

func NewStatusService(health *HealthAggregator, broadcaster Broadcaster) *StatusService {
	return &StatusService{health: health, hub: broadcaster}
}

// Snapshot returns the current health snapshot.
func (s *StatusService) Snapshot() models.HealthSnapshot {
	return s.health.Snapshot()
}

// Run broadcasts a system_status event every interval until ctx is cancelled.
func (s *StatusService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.hub.Broadcast(hub.CategorySystemStatus, hub.TypeSystemStatus, s.health.Snapshot())
		}
	}
}
