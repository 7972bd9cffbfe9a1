package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
	"github.com/verdantio/canopy/internal/domain/report"
	"github.com/verdantio/canopy/internal/repository"
	"github.com/verdantio/canopy/internal/repository/mocks"
)

// testEnv assembles real services over mock stores so handler tests exercise
// the full error mapping without a database or a live backend.
type testEnv struct {
	repo  *mocks.ProjectRepository
	meas  *mocks.MeasurementRepository
	be    *mocks.BackendClient
	blobs *blob.MemoryStore
	srv   *httptest.Server
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	repo := &mocks.ProjectRepository{}
	measRepo := &mocks.MeasurementRepository{}
	be := &mocks.BackendClient{}
	blobs := blob.NewMemoryStore()

	projects := project.NewService(repo, be, nil)
	reconciler := reconcile.NewService(repo, projects, be, reconcile.Options{
		Attempts: 1,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	}, nil, nil)
	measurements := measurement.NewService(measRepo, repo, nil)
	reports := report.NewService(be, blobs, repo, nil)

	mux := NewServer(Services{
		Projects:     projects,
		Reconciler:   reconciler,
		Measurements: measurements,
		Reports:      reports,
		Analyzer:     be,
	}, opts)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{repo: repo, meas: measRepo, be: be, blobs: blobs, srv: srv}
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registryProject() *project.Project {
	return &project.Project{
		ID:          "p1",
		Name:        "Amazon Restoration",
		Coordinates: "-3.4653,-62.2159",
		CarbonTons:  1500.5,
		PricePerTon: 12.0,
		Currency:    "USD",
		ProjectArea: 320.0,
		ForestType:  "Tropical Rainforest",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("GetProject", mock.Anything, "p1").Return(nil, backend.ErrNotFound)
	env.be.On("CreateProject", mock.Anything, mock.Anything).Return(&backend.Project{ID: "p1"}, nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects", map[string]any{
		"id":            "p1",
		"name":          "Amazon Restoration",
		"coordinates":   "-3.4653,-62.2159",
		"project_area":  320.0,
		"forest_type":   "Tropical Rainforest",
		"price_per_ton": 12.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out createProjectResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "p1", out.Project.ID)
	require.True(t, out.Sync.Success)
	require.Equal(t, "p1", out.Sync.BackendID)
}

func TestCreateProjectInvalid(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects", map[string]any{
		"coordinates":  "-3.4653,-62.2159",
		"project_area": 320.0,
		"forest_type":  "Tropical Rainforest",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "error")
}

func TestCreateProjectBadJSON(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, err := http.Post(env.srv.URL+"/api/projects", "application/json", bytes.NewBufferString("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProject(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var proj project.Project
	require.NoError(t, json.Unmarshal(body, &proj))
	require.Equal(t, "Amazon Restoration", proj.Name)
}

func TestGetProjectNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, string(body), "project not found")
}

func TestListProjectsEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("List", mock.Anything).Return(nil, nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, "[]", string(body), "an empty registry is an array, not null")
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	resp, body := doJSON(t, http.MethodPut, env.srv.URL+"/api/projects/p1", map[string]any{
		"price_per_ton": 14.5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var proj project.Project
	require.NoError(t, json.Unmarshal(body, &proj))
	require.Equal(t, 14.5, proj.PricePerTon)
	require.Equal(t, "Amazon Restoration", proj.Name, "unset fields stay unchanged")
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Delete", mock.Anything, "p1").Return(nil)
	env.be.On("DeleteProject", mock.Anything, "p1").Return(nil)

	resp, _ := doJSON(t, http.MethodDelete, env.srv.URL+"/api/projects/p1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	env.be.AssertCalled(t, "DeleteProject", mock.Anything, "p1")
}

func TestAddMeasurement(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.meas.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/p1/measurements", map[string]any{
		"ndvi":            0.82,
		"carbon_estimate": 1510.0,
		"notes":           "dry season pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var m measurement.Measurement
	require.NoError(t, json.Unmarshal(body, &m))
	require.Equal(t, "p1", m.ProjectID)
	require.NotEmpty(t, m.ID)
	require.False(t, m.MeasuredAt.IsZero())
}

func TestAddMeasurementBadNDVI(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/p1/measurements", map[string]any{
		"ndvi": 1.4,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body), "ndvi")
}

func TestListMeasurements(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.meas.On("ListByProject", mock.Anything, "p1").Return([]measurement.Measurement{
		{ID: "m1", ProjectID: "p1", NDVI: 0.8},
	}, nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/measurements", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []measurement.Measurement
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
}

func TestLatestMeasurementNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.meas.On("Latest", mock.Anything, "p1").Return(nil, repository.ErrNotFound)

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/measurements/latest", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncProject(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("GetProject", mock.Anything, "p1").Return(nil, backend.ErrNotFound)
	env.be.On("CreateProject", mock.Anything, mock.Anything).Return(&backend.Project{ID: "p1"}, nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/p1/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res reconcile.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.True(t, res.Success)
}

func TestSyncProjectNotFound(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/ghost/sync", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncProjectBackendDown(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("GetProject", mock.Anything, "p1").Return(nil, backend.ErrNotFound)
	env.be.On("CreateProject", mock.Anything, mock.Anything).Return(nil, io.ErrUnexpectedEOF)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/p1/sync", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var res reconcile.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
}

func TestSyncStatus(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("GetProject", mock.Anything, "p1").Return(&backend.Project{ID: "p1"}, nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st reconcile.Status
	require.NoError(t, json.Unmarshal(body, &st))
	require.True(t, st.PrimaryExists)
	require.True(t, st.BackendExists)
	require.False(t, st.NeedsSync)
}

func TestBatchSyncAllWhenBodyEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("List", mock.Anything).Return([]project.Project{*registryProject()}, nil)
	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("GetProject", mock.Anything, "p1").Return(&backend.Project{ID: "p1"}, nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/sync/batch", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary reconcile.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Successful)
}

func TestBatchSyncNamedIDs(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.repo.On("Get", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
	env.be.On("GetProject", mock.Anything, "p1").Return(&backend.Project{ID: "p1"}, nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/sync/batch", map[string]any{
		"project_ids": []string{"p1", "ghost"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary reconcile.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.Successful)
	require.Equal(t, 1, summary.Failed)
}

func TestConsistency(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("ListIDs", mock.Anything).Return([]string{"p1", "p2"}, nil)
	env.be.On("ListProjects", mock.Anything).Return([]backend.Project{{ID: "p1"}}, nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/sync/consistency", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep reconcile.Consistency
	require.NoError(t, json.Unmarshal(body, &rep))
	require.False(t, rep.Consistent)
	require.Equal(t, []string{"p2"}, rep.MissingInBackend)
}

func TestEstimate(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/estimate", map[string]any{
		"area_hectares": 100.0,
		"forest_type":   "Tropical Rainforest",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		CarbonCredits float64 `json:"carbon_credits"`
		BiomassMatch  string  `json:"biomass_match"`
		Formula       string  `json:"formula"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 32842.1, out.CarbonCredits)
	require.Equal(t, "exact", out.BiomassMatch)
	require.NotEmpty(t, out.Formula)
}

func TestEstimateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/estimate", map[string]any{
		"area_hectares": 0.0,
		"forest_type":   "Tropical Rainforest",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, env.srv.URL+"/api/estimate", map[string]any{
		"area_hectares": 100.0,
		"forest_type":   "Tropical Rainforest",
		"coverage_pct":  140.0,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestForestTypes(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/forest-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []struct {
		ForestType        string  `json:"forest_type"`
		BiomassPerHectare float64 `json:"biomass_per_hectare"`
	}
	require.NoError(t, json.Unmarshal(body, &entries))
	require.NotEmpty(t, entries)
	require.Equal(t, "Tropical Rainforest", entries[0].ForestType)
	require.Equal(t, 280.0, entries[0].BiomassPerHectare)
}

func TestAnalyzeProxies(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("TriggerAnalysis", mock.Anything, "p1").Return(&backend.AnalysisStatus{ProjectID: "p1", Status: "started"}, nil)

	resp, body := doJSON(t, http.MethodPost, env.srv.URL+"/api/projects/p1/analyze", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "started")
}

func TestReportStreamsAndArchives(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("FetchReport", mock.Anything, "p1").Return([]byte("%PDF-1.4 fake"), nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/report?archive=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.Equal(t, "%PDF-1.4 fake", string(body))
	require.NotEmpty(t, resp.Header.Get("X-Report-Archive-Key"))

	infos, err := env.blobs.List(context.Background(), "reports/p1/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestReportWithoutArchive(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)
	env.be.On("FetchReport", mock.Anything, "p1").Return([]byte("%PDF-1.4 fake"), nil)

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get("X-Report-Archive-Key"))

	infos, err := env.blobs.List(context.Background(), "reports/p1/")
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestListReportsEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.repo.On("Get", mock.Anything, "p1").Return(registryProject(), nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/projects/p1/reports", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, "[]", string(body))
}

func TestSatelliteTest(t *testing.T) {
	env := newTestEnv(t, Options{})

	env.be.On("TestLocation", mock.Anything, 51.75, -1.26).Return(&backend.LocationCheck{
		Latitude: 51.75, Longitude: -1.26, NDVI: 0.61, Vegetation: true,
	}, nil)

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/api/satellite/test?lat=51.75&lon=-1.26", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var check backend.LocationCheck
	require.NoError(t, json.Unmarshal(body, &check))
	require.True(t, check.Vegetation)
}

func TestSatelliteTestValidation(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/api/satellite/test", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, env.srv.URL+"/api/satellite/test?lat=91&lon=0", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthOnRouter(t *testing.T) {
	env := newTestEnv(t, Options{AuthToken: "sekrit"})

	resp, _ := doJSON(t, http.MethodPost, env.srv.URL+"/api/estimate", map[string]any{
		"area_hectares": 100.0,
		"forest_type":   "Tropical Rainforest",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.repo.On("List", mock.Anything).Return(nil, nil)
	resp, _ = doJSON(t, http.MethodGet, env.srv.URL+"/api/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp, _ := doJSON(t, http.MethodGet, env.srv.URL+"/health", nil)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, "req-42", resp2.Header.Get("X-Request-Id"))
}

func TestMetricsAndMCPMounts(t *testing.T) {
	metricsStub := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	mcpStub := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("mcp"))
	})
	env := newTestEnv(t, Options{MetricsHandler: metricsStub, MCPHandler: mcpStub})

	resp, body := doJSON(t, http.MethodGet, env.srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "# metrics")

	resp, body = doJSON(t, http.MethodGet, env.srv.URL+"/mcp", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "mcp", string(body))
}
