package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
	"github.com/verdantio/canopy/internal/domain/report"
	"github.com/verdantio/canopy/internal/sqlite"
	"github.com/verdantio/canopy/internal/testserver"
)

type testEnv struct {
	db              *sqlite.DB
	projectRepo     *sqlite.ProjectRepository
	measurementRepo *sqlite.MeasurementRepository
	backend         *testserver.FakeBackend
	be              *backend.Client
	blobs           *blob.MemoryStore

	projectSvc     *project.Service
	reconciler     *reconcile.Service
	measurementSvc *measurement.Service
	reportSvc      *report.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	fake := testserver.NewFakeBackend()
	t.Cleanup(fake.Close)

	projectRepo := sqlite.NewProjectRepository(db)
	measurementRepo := sqlite.NewMeasurementRepository(db)
	be := backend.NewClient(fake.URL(), backend.Options{Timeout: 5 * time.Second}, nil)
	blobs := blob.NewMemoryStore()

	projectSvc := project.NewService(projectRepo, be, nil)
	reconciler := reconcile.NewService(projectRepo, projectSvc, be, reconcile.Options{
		Attempts: 3,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	}, nil, nil)
	measurementSvc := measurement.NewService(measurementRepo, projectRepo, nil)
	reportSvc := report.NewService(be, blobs, projectRepo, nil)

	return &testEnv{
		db:              db,
		projectRepo:     projectRepo,
		measurementRepo: measurementRepo,
		backend:         fake,
		be:              be,
		blobs:           blobs,
		projectSvc:      projectSvc,
		reconciler:      reconciler,
		measurementSvc:  measurementSvc,
		reportSvc:       reportSvc,
	}
}

func amazonRequest(id string) project.CreateRequest {
	return project.CreateRequest{
		ID:          id,
		Name:        "Amazon Restoration",
		Coordinates: "-3.4653,-62.2159",
		PricePerTon: 12.0,
		ProjectArea: 1500.5,
		ForestType:  "Tropical Rainforest",
	}
}

func TestIntegration_ProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	proj, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-amazon"))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "p-amazon", res.BackendID)
	require.Greater(t, proj.CarbonTons, 0.0, "carbon tons derived from area and forest type")
	require.True(t, env.backend.Has("p-amazon"))

	got, err := env.projectSvc.Get(ctx, "p-amazon")
	require.NoError(t, err)
	require.Equal(t, "Amazon Restoration", got.Name)
	require.Equal(t, "USD", got.Currency)

	all, err := env.projectSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	newPrice := 14.5
	updated, err := env.projectSvc.Update(ctx, "p-amazon", project.UpdateRequest{PricePerTon: &newPrice})
	require.NoError(t, err)
	require.Equal(t, 14.5, updated.PricePerTon)
	require.Equal(t, "Amazon Restoration", updated.Name)

	require.NoError(t, env.projectSvc.Delete(ctx, "p-amazon"))
	_, err = env.projectSvc.Get(ctx, "p-amazon")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	require.False(t, env.backend.Has("p-amazon"), "delete cascades to the backend copy")
}

func TestIntegration_CreateSurvivesBackendOutage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Exhaust the whole retry budget.
	env.backend.FailCreates(3, http.StatusServiceUnavailable)

	proj, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-outage"))
	require.NoError(t, err, "keep policy: the registry row survives a failed sync")
	require.NotNil(t, proj)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "503")
	require.False(t, env.backend.Has("p-outage"))

	st, err := env.reconciler.Status(ctx, "p-outage")
	require.NoError(t, err)
	require.True(t, st.PrimaryExists)
	require.False(t, st.BackendExists)
	require.True(t, st.NeedsSync)

	// Backend recovered: a manual re-sync repairs the pair.
	repaired := env.reconciler.SyncProject(ctx, "p-outage")
	require.True(t, repaired.Success)
	require.Equal(t, "p-outage", repaired.BackendID)

	st, err = env.reconciler.Status(ctx, "p-outage")
	require.NoError(t, err)
	require.True(t, st.BackendExists)
	require.False(t, st.NeedsSync)
}

func TestIntegration_RetryRecoversFromTransientFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Two failures, then success: inside the three-attempt budget.
	env.backend.FailCreates(2, http.StatusInternalServerError)

	_, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-flaky"))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, env.backend.Has("p-flaky"))
}

func TestIntegration_RollbackOnFailedSync(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rollback := reconcile.NewService(env.projectRepo, env.projectSvc, env.be, reconcile.Options{
		Attempts:        1,
		OnCreateFailure: reconcile.RollbackOnFailure,
		Sleep:           func(context.Context, time.Duration) error { return nil },
	}, nil, nil)

	env.backend.FailCreates(1, http.StatusInternalServerError)

	proj, res, err := rollback.CreateAndSync(ctx, amazonRequest("p-rollback"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "rolled back")
	require.Nil(t, proj)
	require.False(t, res.Success)

	_, err = env.projectSvc.Get(ctx, "p-rollback")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	require.False(t, env.backend.Has("p-rollback"))
}

func TestIntegration_ConsistencyRepair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, id := range []string{"p-1", "p-2"} {
		_, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest(id))
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	// Drift: the backend loses one copy out of band.
	env.backend.RemoveProject("p-1")

	rep, err := env.reconciler.VerifyConsistency(ctx)
	require.NoError(t, err)
	require.False(t, rep.Consistent)
	require.Equal(t, 2, rep.PrimaryCount)
	require.Equal(t, 1, rep.BackendCount)
	require.Equal(t, []string{"p-1"}, rep.MissingInBackend)

	summary := env.reconciler.BatchSync(ctx, rep.MissingInBackend)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Successful)

	rep, err = env.reconciler.VerifyConsistency(ctx)
	require.NoError(t, err)
	require.True(t, rep.Consistent)
	require.Empty(t, rep.MissingInBackend)
}

func TestIntegration_BatchSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ids := []string{"p-a", "p-b", "p-c"}
	for _, id := range ids {
		_, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest(id))
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	summary := env.reconciler.BatchSync(ctx, ids)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 3, summary.Successful)
	require.Zero(t, summary.Failed)
	require.Equal(t, 3, env.backend.Count(), "re-syncing creates no duplicates")
}

func TestIntegration_MeasurementFeed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-meas"))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order; reads must sort by measurement time.
	idByOffset := make(map[time.Duration]string)
	for _, offset := range []time.Duration{24 * time.Hour, 48 * time.Hour, 0} {
		m, err := env.measurementSvc.Add(ctx, measurement.AddRequest{
			ProjectID:      "p-meas",
			MeasuredAt:     base.Add(offset),
			NDVI:           0.7,
			CarbonEstimate: 100,
		})
		require.NoError(t, err)
		idByOffset[offset] = m.ID
	}

	ms, err := env.measurementSvc.ListByProject(ctx, "p-meas")
	require.NoError(t, err)
	require.Len(t, ms, 3)
	require.Equal(t, idByOffset[48*time.Hour], ms[0].ID, "newest first")
	require.Equal(t, idByOffset[0], ms[2].ID)

	latest, err := env.measurementSvc.Latest(ctx, "p-meas")
	require.NoError(t, err)
	require.Equal(t, idByOffset[48*time.Hour], latest.ID)

	_, err = env.measurementSvc.Add(ctx, measurement.AddRequest{ProjectID: "p-meas", NDVI: 1.2})
	require.ErrorIs(t, err, measurement.ErrInvalidInput)

	_, err = env.measurementSvc.Add(ctx, measurement.AddRequest{ProjectID: "ghost", NDVI: 0.5})
	require.ErrorIs(t, err, measurement.ErrProjectNotFound)
}

func TestIntegration_MeasurementsDeletedWithProject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-cascade"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := env.measurementSvc.Add(ctx, measurement.AddRequest{
			ProjectID: "p-cascade",
			NDVI:      0.6,
		})
		require.NoError(t, err)
	}

	require.NoError(t, env.projectSvc.Delete(ctx, "p-cascade"))

	ms, err := env.measurementSvc.ListByProject(ctx, "p-cascade")
	require.NoError(t, err)
	require.Empty(t, ms)

	_, err = env.measurementSvc.Latest(ctx, "p-cascade")
	require.ErrorIs(t, err, measurement.ErrMeasurementNotFound)
}

func TestIntegration_ReportArchiveFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-report"))
	require.NoError(t, err)

	pdf := []byte("%PDF-1.4 canopy analysis")
	env.backend.SetReport("p-report", pdf)

	data, err := env.reportSvc.Fetch(ctx, "p-report")
	require.NoError(t, err)
	require.Equal(t, pdf, data)

	infos, err := env.reportSvc.List(ctx, "p-report")
	require.NoError(t, err)
	require.Empty(t, infos, "plain fetch archives nothing")

	data, info, err := env.reportSvc.FetchAndArchive(ctx, "p-report")
	require.NoError(t, err)
	require.Equal(t, pdf, data)
	require.True(t, strings.HasPrefix(info.Key, "reports/p-report/"))
	require.Equal(t, int64(len(pdf)), info.Size)

	// Archive keys carry millisecond timestamps; step past the tick so the
	// second snapshot gets its own key.
	time.Sleep(2 * time.Millisecond)
	_, err = env.reportSvc.Archive(ctx, "p-report")
	require.NoError(t, err)

	infos, err = env.reportSvc.List(ctx, "p-report")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Less(t, infos[0].Key, infos[1].Key, "oldest first")

	_, err = env.reportSvc.List(ctx, "ghost")
	require.ErrorIs(t, err, report.ErrProjectNotFound)
}

func TestIntegration_EmptyReportRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-empty"))
	require.NoError(t, err)
	env.backend.SetReport("p-empty", []byte{})

	_, err = env.reportSvc.Fetch(ctx, "p-empty")
	require.ErrorIs(t, err, report.ErrEmptyReport)

	infos, err := env.reportSvc.List(ctx, "p-empty")
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestIntegration_DuplicateCreateRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, res, err := env.reconciler.CreateAndSync(ctx, amazonRequest("p-dup"))
	require.NoError(t, err)
	require.True(t, res.Success)

	_, _, err = env.reconciler.CreateAndSync(ctx, amazonRequest("p-dup"))
	require.ErrorIs(t, err, project.ErrProjectExists)
	require.Equal(t, 1, env.backend.Count())
}
