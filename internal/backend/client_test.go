package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/backend"
)

func newTestClient(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL, backend.Options{APIKey: "test-key"}, nil)
}

func TestCreateProjectPostsPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload backend.ProjectPayload

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(backend.Project{ID: gotPayload.ID, Name: gotPayload.Name})
	}))

	proj, err := client.CreateProject(context.Background(), backend.ProjectPayload{
		ID:           "p1",
		Name:         "Rio Verde",
		Latitude:     -3.4653,
		Longitude:    -62.2159,
		AreaHectares: 100,
		ForestType:   "Tropical Rainforest",
		CarbonTons:   32842.10,
		Currency:     "USD",
	})
	require.NoError(t, err)
	require.Equal(t, "POST /projects", gotPath)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, -3.4653, gotPayload.Latitude)
	require.Equal(t, -62.2159, gotPayload.Longitude)
	require.Equal(t, "p1", proj.ID)
}

func TestCreateProjectConflict(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := client.CreateProject(context.Background(), backend.ProjectPayload{ID: "p1"})
	require.ErrorIs(t, err, backend.ErrConflict)
	require.False(t, backend.IsRetryable(err))
}

func TestGetProjectNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetProject(context.Background(), "missing")
	require.ErrorIs(t, err, backend.ErrNotFound)
	require.False(t, backend.IsRetryable(err))
}

func TestDeleteProjectTreatsMissingAsDeleted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	require.NoError(t, client.DeleteProject(context.Background(), "gone"))
}

func TestListProjects(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GET", r.Method)
		require.Equal(t, "/projects", r.URL.Path)
		json.NewEncoder(w).Encode([]backend.Project{{ID: "a"}, {ID: "b"}})
	}))

	list, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].ID)
}

func TestServerErrorIsRetryableAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))

	_, err := client.GetProject(context.Background(), "p1")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "db down")
	require.True(t, backend.IsRetryable(err))
}

func TestRateLimitIsRetryableButBadRequestIsNot(t *testing.T) {
	status := http.StatusTooManyRequests
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	_, err := client.GetProject(context.Background(), "p1")
	require.True(t, backend.IsRetryable(err))

	status = http.StatusBadRequest
	_, err = client.GetProject(context.Background(), "p1")
	require.False(t, backend.IsRetryable(err))
}

func TestClientTimeoutIsRetryable(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL, backend.Options{Timeout: 50 * time.Millisecond}, nil)
	_, err := client.GetProject(context.Background(), "p1")
	require.Error(t, err)
	require.True(t, backend.IsRetryable(err))
}

func TestConnectionRefusedIsRetryable(t *testing.T) {
	// Port reserved then released, so nothing listens there.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := backend.NewClient(addr, backend.Options{Timeout: time.Second}, nil)
	_, err := client.GetProject(context.Background(), "p1")
	require.Error(t, err)
	require.True(t, backend.IsRetryable(err))
}

func TestTestLocationSendsCoordinates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/satellite/test-location", r.URL.Path)
		require.Equal(t, "51.75", r.URL.Query().Get("lat"))
		require.Equal(t, "-1.26", r.URL.Query().Get("lon"))
		json.NewEncoder(w).Encode(backend.LocationCheck{NDVI: 0.62, Vegetation: true})
	}))

	check, err := client.TestLocation(context.Background(), 51.75, -1.26)
	require.NoError(t, err)
	require.True(t, check.Vegetation)
	require.InDelta(t, 0.62, check.NDVI, 1e-9)
}

func TestFetchReportReturnsBytes(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake report")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/p1/report", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))

	data, err := client.FetchReport(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, pdf, data)
}

func TestTriggerAnalysis(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/projects/p1/analyze", r.URL.Path)
		json.NewEncoder(w).Encode(backend.AnalysisStatus{ProjectID: "p1", Status: "queued"})
	}))

	status, err := client.TriggerAnalysis(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "queued", status.Status)
}

func TestIsRetryableNilAndPlainErrors(t *testing.T) {
	require.False(t, backend.IsRetryable(nil))
	require.False(t, backend.IsRetryable(errors.New("some domain error")))
}
