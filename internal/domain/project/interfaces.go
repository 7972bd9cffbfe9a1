package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, proj *Project) error
	Delete(ctx context.Context, id string) error
}

// Backend is the slice of the analysis-backend client the registry needs for
// the delete cascade. A nil Backend disables the cascade.
type Backend interface {
	DeleteProject(ctx context.Context, id string) error
}
