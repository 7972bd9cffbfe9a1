// Package transport exposes the registry over REST. Routes under /api are
// JSON; mutating methods require the static bearer token when auth is
// enabled. The metrics endpoint and the MCP tool surface are mounted onto
// the same router so one listener serves all three.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/domain/biomass"
	"github.com/verdantio/canopy/internal/domain/carbon"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

// Registry is the project service surface used by the REST layer.
type Registry interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
	Update(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
}

// Reconciler is the dual-store sync surface.
type Reconciler interface {
	Status(ctx context.Context, id string) (reconcile.Status, error)
	SyncProject(ctx context.Context, id string) reconcile.Result
	BatchSync(ctx context.Context, ids []string) reconcile.Summary
	VerifyConsistency(ctx context.Context) (reconcile.Consistency, error)
	CreateAndSync(ctx context.Context, req project.CreateRequest) (*project.Project, reconcile.Result, error)
}

// Measurements is the carbon measurement feed surface.
type Measurements interface {
	Add(ctx context.Context, req measurement.AddRequest) (*measurement.Measurement, error)
	ListByProject(ctx context.Context, projectID string) ([]measurement.Measurement, error)
	Latest(ctx context.Context, projectID string) (*measurement.Measurement, error)
}

// Reports fetches and archives backend report PDFs.
type Reports interface {
	Fetch(ctx context.Context, projectID string) ([]byte, error)
	FetchAndArchive(ctx context.Context, projectID string) ([]byte, blob.Info, error)
	List(ctx context.Context, projectID string) ([]blob.Info, error)
}

// Analyzer is the slice of the backend client proxied straight through.
type Analyzer interface {
	TriggerAnalysis(ctx context.Context, id string) (*backend.AnalysisStatus, error)
	TestLocation(ctx context.Context, lat, lon float64) (*backend.LocationCheck, error)
}

// Services bundles the domain services behind the REST API.
type Services struct {
	Projects     Registry
	Reconciler   Reconciler
	Measurements Measurements
	Reports      Reports
	Analyzer     Analyzer
}

// Options carries cross-cutting router settings.
type Options struct {
	// AuthToken enables bearer auth on mutating methods when non-empty.
	AuthToken string
	// MetricsHandler serves GET /metrics when non-nil.
	MetricsHandler http.Handler
	// MCPHandler is mounted at /mcp when non-nil.
	MCPHandler http.Handler
	// Logger enables per-request logging when non-nil.
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	projects     Registry
	reconciler   Reconciler
	measurements Measurements
	reports      Reports
	analyzer     Analyzer
}

// NewServer creates the HTTP router with middleware.
func NewServer(svcs Services, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	if opts.Logger != nil {
		r.Use(RequestLogger(opts.Logger))
	}
	if opts.AuthToken != "" {
		r.Use(RequireToken(opts.AuthToken))
	}

	srv := &Server{
		projects:     svcs.Projects,
		reconciler:   svcs.Reconciler,
		measurements: svcs.Measurements,
		reports:      svcs.Reports,
		analyzer:     svcs.Analyzer,
	}

	r.Get("/health", srv.handleHealth)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	if opts.MCPHandler != nil {
		r.Mount("/mcp", opts.MCPHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", srv.handleListProjects)
			r.Post("/", srv.handleCreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", srv.handleGetProject)
				r.Put("/", srv.handleUpdateProject)
				r.Delete("/", srv.handleDeleteProject)
				r.Get("/measurements", srv.handleListMeasurements)
				r.Post("/measurements", srv.handleAddMeasurement)
				r.Get("/measurements/latest", srv.handleLatestMeasurement)
				r.Post("/sync", srv.handleSyncProject)
				r.Get("/sync", srv.handleSyncStatus)
				r.Post("/analyze", srv.handleAnalyze)
				r.Get("/report", srv.handleReport)
				r.Get("/reports", srv.handleListReports)
			})
		})
		r.Post("/sync/batch", srv.handleBatchSync)
		r.Get("/sync/consistency", srv.handleConsistency)
		r.Post("/estimate", srv.handleEstimate)
		r.Get("/forest-types", srv.handleForestTypes)
		r.Get("/satellite/test", srv.handleSatelliteTest)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createProjectRequest struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Coordinates string  `json:"coordinates"`
	CarbonTons  float64 `json:"carbon_tons"`
	PricePerTon float64 `json:"price_per_ton"`
	Currency    string  `json:"currency"`
	ProjectArea float64 `json:"project_area"`
	ForestType  string  `json:"forest_type"`
	Description string  `json:"description"`
}

// createProjectResponse pairs the stored project with the outcome of its
// first sync; callers decide whether an unsynced row needs attention.
type createProjectResponse struct {
	Project *project.Project `json:"project"`
	Sync    reconcile.Result `json:"sync"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proj, res, err := s.reconciler.CreateAndSync(r.Context(), project.CreateRequest{
		ID:          req.ID,
		Name:        req.Name,
		Coordinates: req.Coordinates,
		CarbonTons:  req.CarbonTons,
		PricePerTon: req.PricePerTon,
		Currency:    req.Currency,
		ProjectArea: req.ProjectArea,
		ForestType:  req.ForestType,
		Description: req.Description,
	})
	if err != nil {
		// A rolled-back dual write surfaces as an upstream failure; create
		// errors keep their domain mapping.
		if proj == nil && res.ProjectID != "" {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createProjectResponse{Project: proj, Sync: res})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type updateProjectRequest struct {
	Name        *string  `json:"name"`
	Coordinates *string  `json:"coordinates"`
	CarbonTons  *float64 `json:"carbon_tons"`
	PricePerTon *float64 `json:"price_per_ton"`
	Currency    *string  `json:"currency"`
	ProjectArea *float64 `json:"project_area"`
	ForestType  *string  `json:"forest_type"`
	Description *string  `json:"description"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proj, err := s.projects.Update(r.Context(), chi.URLParam(r, "id"), project.UpdateRequest{
		Name:        req.Name,
		Coordinates: req.Coordinates,
		CarbonTons:  req.CarbonTons,
		PricePerTon: req.PricePerTon,
		Currency:    req.Currency,
		ProjectArea: req.ProjectArea,
		ForestType:  req.ForestType,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMeasurementRequest struct {
	MeasuredAt     *time.Time `json:"measured_at,omitempty"`
	NDVI           float64    `json:"ndvi"`
	CarbonEstimate float64    `json:"carbon_estimate"`
	Notes          string     `json:"notes"`
}

func (s *Server) handleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	var req addMeasurementRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	add := measurement.AddRequest{
		ProjectID:      chi.URLParam(r, "id"),
		NDVI:           req.NDVI,
		CarbonEstimate: req.CarbonEstimate,
		Notes:          req.Notes,
	}
	if req.MeasuredAt != nil {
		add.MeasuredAt = *req.MeasuredAt
	}

	m, err := s.measurements.Add(r.Context(), add)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	list, err := s.measurements.ListByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []measurement.Measurement{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLatestMeasurement(w http.ResponseWriter, r *http.Request) {
	m, err := s.measurements.Latest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleSyncProject pushes one project to the backend. The registry lookup
// runs first so an unknown ID is a 404 rather than a failed sync result.
func (s *Server) handleSyncProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.projects.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	res := s.reconciler.SyncProject(r.Context(), id)
	if !res.Success {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.reconciler.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type batchSyncRequest struct {
	ProjectIDs []string `json:"project_ids"`
}

// handleBatchSync syncs the named projects, or every registry project when
// the list is empty. Re-syncing an already-synced project is a cheap skip.
func (s *Server) handleBatchSync(w http.ResponseWriter, r *http.Request) {
	var req batchSyncRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ids := req.ProjectIDs
	if len(ids) == 0 {
		projects, err := s.projects.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
	}

	writeJSON(w, http.StatusOK, s.reconciler.BatchSync(r.Context(), ids))
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reconciler.VerifyConsistency(r.Context())
	if err != nil {
		writeProxyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type estimateRequest struct {
	AreaHectares float64  `json:"area_hectares"`
	ForestType   string   `json:"forest_type"`
	CoveragePct  *float64 `json:"coverage_pct,omitempty"`
	BufferPct    *float64 `json:"buffer_pct,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AreaHectares <= 0 {
		writeError(w, http.StatusBadRequest, "area_hectares must be positive")
		return
	}

	coverage := carbon.DefaultCoveragePct
	if req.CoveragePct != nil {
		coverage = *req.CoveragePct
	}
	buffer := carbon.DefaultBufferPct
	if req.BufferPct != nil {
		buffer = *req.BufferPct
	}
	if coverage < 0 || coverage > 100 {
		writeError(w, http.StatusBadRequest, "coverage_pct must be between 0 and 100")
		return
	}
	if buffer < 0 || buffer > 100 {
		writeError(w, http.StatusBadRequest, "buffer_pct must be between 0 and 100")
		return
	}

	writeJSON(w, http.StatusOK, carbon.Calculate(req.AreaHectares, req.ForestType, coverage, buffer))
}

func (s *Server) handleForestTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, biomass.Entries())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.projects.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	status, err := s.analyzer.TriggerAnalysis(r.Context(), id)
	if err != nil {
		writeProxyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleReport streams the backend's current PDF. With ?archive=true a copy
// is stored first and its key returned in X-Report-Archive-Key.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var data []byte
	var err error
	if r.URL.Query().Get("archive") == "true" {
		var info blob.Info
		data, info, err = s.reports.FetchAndArchive(r.Context(), id)
		if err == nil {
			w.Header().Set("X-Report-Archive-Key", info.Key)
		}
	} else {
		data, err = s.reports.Fetch(r.Context(), id)
	}
	if err != nil {
		writeProxyError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	infos, err := s.reports.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleSatelliteTest(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat")
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lon")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	check, err := s.analyzer.TestLocation(r.Context(), lat, lon)
	if err != nil {
		writeProxyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
