package testserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verdantio/canopy/internal/backend"
)

// FakeBackend is an in-process stand-in for the analysis backend's REST API.
// It keeps project copies in memory and exposes knobs for failure injection
// and out-of-band drift.
type FakeBackend struct {
	server *httptest.Server

	mu          sync.Mutex
	projects    map[string]backend.Project
	reports     map[string][]byte
	failCreates int
	failStatus  int
}

// NewFakeBackend starts the fake on an ephemeral port. Callers own Close.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		projects: make(map[string]backend.Project),
		reports:  make(map[string][]byte),
	}

	r := chi.NewRouter()
	r.Post("/projects", fb.handleCreate)
	r.Get("/projects", fb.handleList)
	r.Get("/projects/{id}", fb.handleGet)
	r.Delete("/projects/{id}", fb.handleDelete)
	r.Post("/projects/{id}/analyze", fb.handleAnalyze)
	r.Get("/projects/{id}/report", fb.handleReport)
	r.Get("/satellite/test-location", fb.handleTestLocation)

	fb.server = httptest.NewServer(r)
	return fb
}

func (fb *FakeBackend) URL() string { return fb.server.URL }

func (fb *FakeBackend) Close() { fb.server.Close() }

// FailCreates makes the next n create calls respond with the given status.
func (fb *FakeBackend) FailCreates(n, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failCreates = n
	fb.failStatus = status
}

// RemoveProject drops a copy directly, bypassing the API. Tests use it to
// simulate drift the reconciler should detect.
func (fb *FakeBackend) RemoveProject(id string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.projects, id)
}

// Has reports whether a copy exists for the ID.
func (fb *FakeBackend) Has(id string) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, ok := fb.projects[id]
	return ok
}

// Count returns the number of stored copies.
func (fb *FakeBackend) Count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.projects)
}

// SetReport fixes the PDF bytes served for a project's report.
func (fb *FakeBackend) SetReport(id string, data []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.reports[id] = data
}

func (fb *FakeBackend) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload backend.ProjectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.failCreates > 0 {
		fb.failCreates--
		http.Error(w, "backend unavailable", fb.failStatus)
		return
	}
	if _, ok := fb.projects[payload.ID]; ok {
		http.Error(w, "duplicate project", http.StatusConflict)
		return
	}

	proj := backend.Project{
		ID:           payload.ID,
		Name:         payload.Name,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		AreaHectares: payload.AreaHectares,
		ForestType:   payload.ForestType,
		CarbonTons:   payload.CarbonTons,
		PricePerTon:  payload.PricePerTon,
		Currency:     payload.Currency,
		Description:  payload.Description,
		CreatedAt:    payload.CreatedAt,
	}
	fb.projects[proj.ID] = proj

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(proj)
}

func (fb *FakeBackend) handleList(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	out := make([]backend.Project, 0, len(fb.projects))
	for _, p := range fb.projects {
		out = append(out, p)
	}
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (fb *FakeBackend) handleGet(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	proj, ok := fb.projects[chi.URLParam(r, "id")]
	fb.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(proj)
}

func (fb *FakeBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fb.mu.Lock()
	_, ok := fb.projects[id]
	delete(fb.projects, id)
	fb.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (fb *FakeBackend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !fb.Has(id) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	now := time.Now().UTC()
	fb.mu.Lock()
	proj := fb.projects[id]
	proj.AnalyzedAt = &now
	fb.projects[id] = proj
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(backend.AnalysisStatus{ProjectID: id, Status: "queued"})
}

func (fb *FakeBackend) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fb.mu.Lock()
	data, ok := fb.reports[id]
	fb.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(data)
}

func (fb *FakeBackend) handleTestLocation(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		http.Error(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		http.Error(w, "invalid lon", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(backend.LocationCheck{
		Latitude:   lat,
		Longitude:  lon,
		NDVI:       0.78,
		Vegetation: true,
		Satellite:  "sentinel-2",
	})
}
