package report

import (
	"context"

	"github.com/verdantio/canopy/internal/domain/project"
)

// Fetcher is the slice of the backend client that downloads report PDFs.
type Fetcher interface {
	FetchReport(ctx context.Context, id string) ([]byte, error)
}

// ProjectGetter is the slice of the project repository used to check the
// project exists before fetching its report.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}
