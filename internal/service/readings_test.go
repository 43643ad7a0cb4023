package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

type latestReaderStub struct {
	m   *models.Measurement
	err error
}

func (s *latestReaderStub) Latest(ctx context.Context, sensorID string) (*models.Measurement, error) {
	return s.m, s.err
}

type latestRecordingRepo struct {
	measurementRepoStub
	latestCalls int
}

func (r *latestRecordingRepo) Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error) {
	r.latestCalls++
	return []models.Measurement{{ID: 42, SensorID: sensorID}}, nil
}

func TestReadingService_ListRejectsInvertedRange(t *testing.T) {
	t.Parallel()
	s := NewReadingService(&measurementRepoStub{}, nil, logger.Get(logger.ErrorLevel))

	now := time.Now()
	_, err := s.List(context.Background(), repository.MeasurementFilter{
		From: now,
		To:   now.Add(-time.Hour),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("want errInvalidTimeRange, got %v", err)
	}
}

func TestReadingService_LatestPrefersCache(t *testing.T) {
	t.Parallel()
	repo := &latestRecordingRepo{}
	cached := &models.Measurement{ID: 7, SensorID: "laser_front", Type: models.TypeGauge}
	s := NewReadingService(repo, &latestReaderStub{m: cached}, logger.Get(logger.ErrorLevel))

	got, err := s.Latest(context.Background(), "laser_front", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 {
		t.Errorf("want cached reading, got %+v", got)
	}
	if repo.latestCalls != 0 {
		t.Errorf("repository queried despite cache hit: %d calls", repo.latestCalls)
	}
}

func TestReadingService_LatestFallsBackToRepository(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		cache  LatestReader
		sensor string
		limit  int
	}{
		{"cache error", &latestReaderStub{err: errors.New("redis down")}, "laser_front", 1},
		{"cache miss", &latestReaderStub{}, "laser_front", 1},
		{"multi-row query bypasses cache", &latestReaderStub{m: &models.Measurement{ID: 7}}, "laser_front", 10},
		{"all-sensor query bypasses cache", &latestReaderStub{m: &models.Measurement{ID: 7}}, "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &latestRecordingRepo{}
			s := NewReadingService(repo, tc.cache, logger.Get(logger.ErrorLevel))

			got, err := s.Latest(context.Background(), tc.sensor, tc.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.latestCalls != 1 {
				t.Errorf("repository calls: want 1, got %d", repo.latestCalls)
			}
			if len(got) != 1 || got[0].ID != 42 {
				t.Errorf("want repository reading, got %+v", got)
			}
		})
	}
}

func TestDefectService_ReviewRequiresReviewer(t *testing.T) {
	t.Parallel()
	s := NewDefectService(&defectRepoStub{})

	if err := s.Review(context.Background(), 5, ""); !errors.Is(err, errReviewerRequired) {
		t.Fatalf("want errReviewerRequired, got %v", err)
	}
	if err := s.Review(context.Background(), 5, "inspector_7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatusService_RunBroadcastsSnapshots(t *testing.T) {
	t.Parallel()
	b := &broadcasterStub{}
	health := NewHealthAggregator(24 * time.Hour)
	s := NewStatusService(health, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(b.byType("system_status")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no system_status broadcast")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	events := b.byType("system_status")
	snap, ok := events[0].data.(models.HealthSnapshot)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[0].data)
	}
	if snap.Status == "" {
		t.Error("snapshot missing status")
	}
}
