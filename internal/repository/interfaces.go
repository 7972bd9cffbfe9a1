package repository

import (
	"context"

	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
)

// ProjectRepository manages project persistence
type ProjectRepository interface {
	Create(ctx context.Context, proj *project.Project) error
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, proj *project.Project) error
	Delete(ctx context.Context, id string) error
}

// MeasurementRepository manages the append-only measurement feed
type MeasurementRepository interface {
	Create(ctx context.Context, m *measurement.Measurement) error
	ListByProject(ctx context.Context, projectID string) ([]measurement.Measurement, error)
	Latest(ctx context.Context, projectID string) (*measurement.Measurement, error)
}
