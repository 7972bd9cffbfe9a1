package measurement

import (
	"context"

	"github.com/verdantio/canopy/internal/domain/project"
)

// Repository provides persistence for measurements.
type Repository interface {
	Create(ctx context.Context, m *Measurement) error
	ListByProject(ctx context.Context, projectID string) ([]Measurement, error)
	Latest(ctx context.Context, projectID string) (*Measurement, error)
}

// ProjectGetter is the slice of the project repository used to check the
// parent project exists before an append.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}
