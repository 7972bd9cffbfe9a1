package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/repository"
)

func testMeasurement(id, projectID string, measuredAt time.Time) *measurement.Measurement {
	return &measurement.Measurement{
		ID:             id,
		ProjectID:      projectID,
		MeasuredAt:     measuredAt,
		NDVI:           0.82,
		CarbonEstimate: 1510.0,
		Notes:          "dry season pass",
		CreatedAt:      measuredAt,
	}
}

func TestMeasurementRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	err := projects.Create(ctx, testProject("p1", time.Now().UTC()))
	require.NoError(t, err)

	m := testMeasurement("m1", "p1", time.Now().UTC())
	err = repo.Create(ctx, m)
	require.NoError(t, err)

	got, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, 0.82, got[0].NDVI)
	require.Equal(t, 1510.0, got[0].CarbonEstimate)
	require.Equal(t, "dry season pass", got[0].Notes)
}

func TestMeasurementRepository_Create_UnknownProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	m := testMeasurement("m1", "missing", time.Now().UTC())
	err := repo.Create(ctx, m)
	require.Equal(t, repository.ErrForeignKeyViolation, err)
}

func TestMeasurementRepository_Create_Duplicate(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	err := projects.Create(ctx, testProject("p1", time.Now().UTC()))
	require.NoError(t, err)

	m := testMeasurement("m1", "p1", time.Now().UTC())
	err = repo.Create(ctx, m)
	require.NoError(t, err)

	err = repo.Create(ctx, m)
	require.Equal(t, repository.ErrDuplicate, err)
}

func TestMeasurementRepository_Create_NDVIOutOfRange(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	err := projects.Create(ctx, testProject("p1", time.Now().UTC()))
	require.NoError(t, err)

	m := testMeasurement("m1", "p1", time.Now().UTC())
	m.NDVI = 1.4
	err = repo.Create(ctx, m)
	require.Equal(t, repository.ErrInvalidInput, err)
}

func TestMeasurementRepository_ListByProject(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	err := projects.Create(ctx, testProject("p1", base))
	require.NoError(t, err)
	err = projects.Create(ctx, testProject("p2", base))
	require.NoError(t, err)

	// Out-of-order inserts; listing sorts by measured_at
	err = repo.Create(ctx, testMeasurement("m1", "p1", base.Add(-2*time.Hour)))
	require.NoError(t, err)
	err = repo.Create(ctx, testMeasurement("m2", "p1", base))
	require.NoError(t, err)
	err = repo.Create(ctx, testMeasurement("m3", "p1", base.Add(-time.Hour)))
	require.NoError(t, err)
	err = repo.Create(ctx, testMeasurement("other", "p2", base))
	require.NoError(t, err)

	got, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first, other projects excluded
	require.Equal(t, "m2", got[0].ID)
	require.Equal(t, "m3", got[1].ID)
	require.Equal(t, "m1", got[2].ID)
}

func TestMeasurementRepository_ListByProject_Empty(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	got, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMeasurementRepository_Latest(t *testing.T) {
	db := NewTestDB(t)
	projects := NewProjectRepository(db)
	repo := NewMeasurementRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	err := projects.Create(ctx, testProject("p1", base))
	require.NoError(t, err)

	// No measurements yet
	_, err = repo.Latest(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)

	err = repo.Create(ctx, testMeasurement("m1", "p1", base.Add(-time.Hour)))
	require.NoError(t, err)
	err = repo.Create(ctx, testMeasurement("m2", "p1", base))
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "m2", latest.ID)
}
