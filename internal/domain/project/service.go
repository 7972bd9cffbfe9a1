package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantio/canopy/internal/domain/carbon"
	"github.com/verdantio/canopy/internal/repository/repoerr"
)

// DefaultCurrency is applied when a create request leaves currency empty.
const DefaultCurrency = "USD"

// Service handles registry operations on carbon-offset projects.
type Service struct {
	repo    Repository
	backend Backend
	logger  *slog.Logger
}

// NewService creates a project service. backend may be nil, which disables
// the best-effort delete cascade to the analysis backend.
func NewService(repo Repository, backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, backend: backend, logger: logger}
}

// CreateRequest defines project registration inputs.
type CreateRequest struct {
	ID          string
	Name        string
	Coordinates string
	CarbonTons  float64
	PricePerTon float64
	Currency    string
	ProjectArea float64
	ForestType  string
	Description string
}

// Create validates and stores a new project. When CarbonTons is zero it is
// estimated from area and forest type with the default coverage and buffer,
// matching what the intake form shows the applicant.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	carbonTons := req.CarbonTons
	if carbonTons == 0 {
		carbonTons = carbon.CalculateCredits(req.ProjectArea, req.ForestType, carbon.DefaultCoveragePct, carbon.DefaultBufferPct)
	}

	proj := &Project{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Coordinates: strings.ReplaceAll(req.Coordinates, " ", ""),
		CarbonTons:  carbonTons,
		PricePerTon: req.PricePerTon,
		Currency:    currency,
		ProjectArea: req.ProjectArea,
		ForestType:  req.ForestType,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repoerr.ErrDuplicate) {
			return nil, ErrProjectExists
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project registered", "project_id", proj.ID, "forest_type", proj.ForestType, "carbon_tons", proj.CarbonTons)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns all projects in the registry, newest first.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// UpdateRequest defines a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string
	Coordinates *string
	CarbonTons  *float64
	PricePerTon *float64
	Currency    *string
	ProjectArea *float64
	ForestType  *string
	Description *string
}

// Update applies a partial update to a project.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Project, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		proj.Name = strings.TrimSpace(*req.Name)
	}
	if req.Coordinates != nil {
		if _, _, err := ParseCoordinates(*req.Coordinates); err != nil {
			return nil, err
		}
		proj.Coordinates = strings.ReplaceAll(*req.Coordinates, " ", "")
	}
	if req.CarbonTons != nil {
		if *req.CarbonTons < 0 {
			return nil, fmt.Errorf("%w: carbon_tons cannot be negative", ErrInvalidInput)
		}
		proj.CarbonTons = *req.CarbonTons
	}
	if req.PricePerTon != nil {
		if *req.PricePerTon < 0 {
			return nil, fmt.Errorf("%w: price_per_ton cannot be negative", ErrInvalidInput)
		}
		proj.PricePerTon = *req.PricePerTon
	}
	if req.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if !validCurrency(c) {
			return nil, fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrInvalidInput, *req.Currency)
		}
		proj.Currency = c
	}
	if req.ProjectArea != nil {
		if *req.ProjectArea <= 0 {
			return nil, fmt.Errorf("%w: project_area must be positive, got %v", ErrInvalidInput, *req.ProjectArea)
		}
		proj.ProjectArea = *req.ProjectArea
	}
	if req.ForestType != nil {
		if strings.TrimSpace(*req.ForestType) == "" {
			return nil, fmt.Errorf("%w: forest_type cannot be empty", ErrInvalidInput)
		}
		proj.ForestType = *req.ForestType
	}
	if req.Description != nil {
		proj.Description = *req.Description
	}

	if err := s.repo.Update(ctx, proj); err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return proj, nil
}

// Delete removes a project from the registry and, when a backend client is
// configured, cascades best-effort to the analysis backend. A failed cascade
// is logged and left for the consistency check to surface; the registry
// delete is never rolled back.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}

	if s.backend != nil {
		if err := s.backend.DeleteProject(ctx, id); err != nil {
			s.logger.Warn("backend delete cascade failed, orphan copy remains",
				"project_id", id, "error", err)
		}
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}
