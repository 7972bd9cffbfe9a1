package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/repository"
)

func testProject(id string, createdAt time.Time) *project.Project {
	return &project.Project{
		ID:          id,
		Name:        "Amazon Restoration " + id,
		Coordinates: "-3.4653,-62.2159",
		CarbonTons:  1500.5,
		PricePerTon: 12.0,
		Currency:    "USD",
		ProjectArea: 320.0,
		ForestType:  "Tropical Rainforest",
		Description: "Reforestation pilot",
		CreatedAt:   createdAt,
	}
}

func TestProjectRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())

	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	// Verify it was created
	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, proj.ID, retrieved.ID)
	require.Equal(t, proj.Name, retrieved.Name)
	require.Equal(t, proj.Coordinates, retrieved.Coordinates)
	require.Equal(t, proj.CarbonTons, retrieved.CarbonTons)
	require.Equal(t, proj.ForestType, retrieved.ForestType)
}

func TestProjectRepository_Create_Duplicate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())

	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	// Same ID again
	err = repo.Create(ctx, proj)
	require.Equal(t, repository.ErrDuplicate, err)
}

func TestProjectRepository_Get(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())
	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	require.Equal(t, "p1", retrieved.ID)

	// Try to get non-existent project
	_, err = repo.Get(ctx, "nonexistent")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()

	err := repo.Create(ctx, testProject("p1", base.Add(-time.Hour)))
	require.NoError(t, err)
	err = repo.Create(ctx, testProject("p2", base))
	require.NoError(t, err)

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	// Should be ordered by created_at DESC (newest first)
	require.Equal(t, "p2", projects[0].ID)
	require.Equal(t, "p1", projects[1].ID)
}

func TestProjectRepository_List_Empty(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestProjectRepository_ListIDs(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []string{"p3", "p1", "p2"} {
		err := repo.Create(ctx, testProject(id, now))
		require.NoError(t, err)
	}

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p3"}, ids)
}

func TestProjectRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())
	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	proj.Name = "Amazon Restoration Phase II"
	proj.CarbonTons = 2100.0
	proj.PricePerTon = 14.5
	err = repo.Update(ctx, proj)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Amazon Restoration Phase II", retrieved.Name)
	require.Equal(t, 2100.0, retrieved.CarbonTons)
	require.Equal(t, 14.5, retrieved.PricePerTon)

	// Updating a non-existent project reports not found
	missing := testProject("nonexistent", time.Now().UTC())
	err = repo.Update(ctx, missing)
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())
	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	err = repo.Delete(ctx, "p1")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)

	// Deleting again reports not found
	err = repo.Delete(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_Delete_CascadesMeasurements(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	measurements := NewMeasurementRepository(db)
	ctx := context.Background()

	proj := testProject("p1", time.Now().UTC())
	err := repo.Create(ctx, proj)
	require.NoError(t, err)

	err = measurements.Create(ctx, testMeasurement("m1", "p1", time.Now().UTC()))
	require.NoError(t, err)

	err = repo.Delete(ctx, "p1")
	require.NoError(t, err)

	got, err := measurements.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, got)
}
