package reconcile

import (
	"context"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/domain/project"
)

// Backend is the analysis-backend surface the reconciler drives.
type Backend interface {
	CreateProject(ctx context.Context, payload backend.ProjectPayload) (*backend.Project, error)
	GetProject(ctx context.Context, id string) (*backend.Project, error)
	ListProjects(ctx context.Context) ([]backend.Project, error)
}

// ProjectStore is the read surface of the registry the reconciler needs.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// Registry is the project-service surface used by the create-and-sync flow.
type Registry interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
}
