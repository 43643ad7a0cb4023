package service

import (
	"context"
	"errors"

	"trackmonitor/internal/logger"
	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

var errInvalidTimeRange = errors.New("invalid time range: from must be <= to")

// LatestReader serves cached latest readings; may be backed by Redis.
type LatestReader interface {
	Latest(ctx context.Context, sensorID string) (*models.Measurement, error)
}

// ReadingService answers measurement queries, consulting the latest-reading
// cache before falling back to the repository.
type ReadingService struct {
	repo  repository.MeasurementRepo
	cache LatestReader // may be nil
	log   *logger.Logger
}

func NewReadingService(repo repository.MeasurementRepo, cache LatestReader, log *logger.Logger) *ReadingService {
	return &ReadingService{repo: repo, cache: cache, log: log}
}

// List returns measurements matching the filter.
func (s *ReadingService) List(ctx context.Context, f repository.MeasurementFilter) ([]models.Measurement, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, f)
}

// Latest returns recent measurements. For a single-sensor query the cache is
// tried first; cache errors degrade to the repository.
func (s *ReadingService) Latest(ctx context.Context, sensorID string, limit int) ([]models.Measurement, error) {
	if sensorID != "" && limit == 1 && s.cache != nil {
		m, err := s.cache.Latest(ctx, sensorID)
		if err != nil {
			s.log.Infow("cache_read_failed", "sensor_id", sensorID, "err", err)
		} else if m != nil {
			return []models.Measurement{*m}, nil
		}
	}
	return s.repo.Latest(ctx, sensorID, limit)
}

// Sensors lists distinct sensor ids seen so far.
func (s *ReadingService) Sensors(ctx context.Context) ([]string, error) {
	return s.repo.Sensors(ctx)
}
