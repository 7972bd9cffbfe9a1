package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MeasurementRepository is a mock for repository.MeasurementRepository.
type MeasurementRepository struct {
	mock.Mock
}

func (m *MeasurementRepository) Create(ctx context.Context, meas *measurement.Measurement) error {
	args := m.Called(ctx, meas)
	return args.Error(0)
}

func (m *MeasurementRepository) ListByProject(ctx context.Context, projectID string) ([]measurement.Measurement, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]measurement.Measurement); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeasurementRepository) Latest(ctx context.Context, projectID string) (*measurement.Measurement, error) {
	args := m.Called(ctx, projectID)
	if meas, ok := args.Get(0).(*measurement.Measurement); ok {
		return meas, args.Error(1)
	}
	return nil, args.Error(1)
}

// BackendClient is a mock for the analysis-backend client surface consumed by
// the reconciler and the project delete cascade.
type BackendClient struct {
	mock.Mock
}

func (m *BackendClient) CreateProject(ctx context.Context, payload backend.ProjectPayload) (*backend.Project, error) {
	args := m.Called(ctx, payload)
	if proj, ok := args.Get(0).(*backend.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BackendClient) GetProject(ctx context.Context, id string) (*backend.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*backend.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BackendClient) ListProjects(ctx context.Context) ([]backend.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]backend.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BackendClient) DeleteProject(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BackendClient) TriggerAnalysis(ctx context.Context, id string) (*backend.AnalysisStatus, error) {
	args := m.Called(ctx, id)
	if status, ok := args.Get(0).(*backend.AnalysisStatus); ok {
		return status, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BackendClient) FetchReport(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BackendClient) TestLocation(ctx context.Context, lat, lon float64) (*backend.LocationCheck, error) {
	args := m.Called(ctx, lat, lon)
	if check, ok := args.Get(0).(*backend.LocationCheck); ok {
		return check, args.Error(1)
	}
	return nil, args.Error(1)
}
