package service

import (
	"context"
	"errors"

	"trackmonitor/internal/models"
	"trackmonitor/internal/repository"
)

var errReviewerRequired = errors.New("reviewer is required")

// DefectService answers defect queries and owns the review lifecycle, which
// lives entirely in the storage collaborator.
type DefectService struct {
	repo repository.DefectRepo
}

func NewDefectService(repo repository.DefectRepo) *DefectService {
	return &DefectService{repo: repo}
}

// List returns defects matching the filter.
func (s *DefectService) List(ctx context.Context, f repository.DefectFilter) ([]models.DefectEvent, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, f)
}

// Review marks a defect reviewed by the named reviewer.
func (s *DefectService) Review(ctx context.Context, id int64, reviewer string) error {
	if reviewer == "" {
		return errReviewerRequired
	}
	return s.repo.Review(ctx, id, reviewer)
}
