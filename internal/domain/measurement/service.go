package measurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantio/canopy/internal/repository/repoerr"
)

// Service handles the append-only carbon measurement feed.
type Service struct {
	repo     Repository
	projects ProjectGetter
	logger   *slog.Logger
}

// NewService creates a measurement service.
func NewService(repo Repository, projects ProjectGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, projects: projects, logger: logger}
}

// AddRequest defines inputs for appending a measurement.
type AddRequest struct {
	ProjectID      string
	MeasuredAt     time.Time
	NDVI           float64
	CarbonEstimate float64
	Notes          string
}

// Add appends a measurement for a project. NDVI must lie in [0, 1] and the
// project must exist; MeasuredAt defaults to now.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Measurement, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if req.NDVI < 0 || req.NDVI > 1 {
		return nil, fmt.Errorf("%w: ndvi %v out of range [0, 1]", ErrInvalidInput, req.NDVI)
	}
	if req.CarbonEstimate < 0 {
		return nil, fmt.Errorf("%w: carbon_estimate cannot be negative", ErrInvalidInput)
	}

	if _, err := s.projects.Get(ctx, req.ProjectID); err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("checking project: %w", err)
	}

	measuredAt := req.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = time.Now().UTC()
	}

	m := &Measurement{
		ID:             uuid.NewString(),
		ProjectID:      req.ProjectID,
		MeasuredAt:     measuredAt,
		NDVI:           req.NDVI,
		CarbonEstimate: req.CarbonEstimate,
		Notes:          req.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, repoerr.ErrForeignKeyViolation) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("appending measurement: %w", err)
	}

	s.logger.Info("measurement appended", "project_id", m.ProjectID, "ndvi", m.NDVI)
	return m, nil
}

// ListByProject returns a project's measurements, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Measurement, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	return s.repo.ListByProject(ctx, projectID)
}

// Latest returns the most recent measurement for a project.
func (s *Service) Latest(ctx context.Context, projectID string) (*Measurement, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	m, err := s.repo.Latest(ctx, projectID)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrMeasurementNotFound
		}
		return nil, fmt.Errorf("getting latest measurement: %w", err)
	}
	return m, nil
}
