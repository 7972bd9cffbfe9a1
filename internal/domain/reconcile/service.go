package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/metrics"
	"github.com/verdantio/canopy/internal/repository"
	"github.com/verdantio/canopy/internal/retry"
)

// Defaults for the sync policy knobs.
const (
	DefaultAttempts   = 3
	DefaultBatchSize  = 3
	DefaultBatchDelay = time.Second
)

// Options tunes the reconciler. Zero values fall back to defaults.
type Options struct {
	// Attempts is the total create-attempt budget per sync, retries included.
	Attempts int
	// BackoffUnit is the doubling base between attempts (default 1s, giving
	// 2s then 4s waits at the default budget).
	BackoffUnit time.Duration
	// BatchSize is how many projects sync concurrently per batch.
	BatchSize int
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration
	// OnCreateFailure picks the dual-write policy for CreateAndSync.
	OnCreateFailure FailurePolicy
	// Sleep is injectable for tests; default honors context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service reconciles the registry with the analysis backend. The registry is
// the source of truth: reconciliation only ever pushes registry rows to the
// backend, never the reverse.
type Service struct {
	projects ProjectStore
	registry Registry
	backend  Backend
	opts     Options
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a reconciler. registry may be nil when the create-and-
// sync flow isn't needed (CLI sync commands, for instance).
func NewService(projects ProjectStore, registry Registry, be Backend, opts Options, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Attempts < 1 {
		opts.Attempts = DefaultAttempts
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.OnCreateFailure == "" {
		opts.OnCreateFailure = KeepOnFailure
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	return &Service{projects: projects, registry: registry, backend: be, opts: opts, metrics: m, logger: logger}
}

// Status reports where a project currently lives. A registry miss
// short-circuits: there is nothing to sync for an unknown ID. A failing
// backend lookup is treated as "not there", so the answer errs toward
// re-syncing rather than skipping.
func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	st := Status{ProjectID: id}
	if strings.TrimSpace(id) == "" {
		return st, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}

	if _, err := s.projects.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return st, nil
		}
		return st, fmt.Errorf("reading registry: %w", err)
	}
	st.PrimaryExists = true

	bp, err := s.backend.GetProject(ctx, id)
	if err != nil {
		if !errors.Is(err, backend.ErrNotFound) {
			s.logger.Debug("backend lookup failed, treating as unsynced", "project_id", id, "error", err)
		}
		st.NeedsSync = true
		return st, nil
	}
	st.BackendExists = true
	st.BackendID = bp.ID
	return st, nil
}

// SyncProject pushes one registry project to the backend. It always returns
// a Result rather than an error so batch callers can aggregate outcomes; the
// Error field carries the terminal failure, if any.
func (s *Service) SyncProject(ctx context.Context, id string) Result {
	res := Result{ProjectID: id}
	if strings.TrimSpace(id) == "" {
		res.Error = "project id is required"
		s.metrics.SyncOutcome(metrics.OutcomeFailure)
		return res
	}

	proj, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			res.Error = "project not found in registry"
		} else {
			res.Error = fmt.Sprintf("reading registry: %v", err)
		}
		s.metrics.SyncOutcome(metrics.OutcomeFailure)
		return res
	}

	// Re-running a sync must not create duplicates: both stores share the
	// project ID, so an existing backend copy means we're done. Lookup
	// failures fall through to the create, whose conflict handling covers
	// the race.
	if existing, err := s.backend.GetProject(ctx, id); err == nil {
		res.Success = true
		res.BackendID = existing.ID
		s.metrics.SyncOutcome(metrics.OutcomeSkipped)
		s.logger.Debug("project already synced", "project_id", id)
		return res
	}

	payload, err := payloadFor(proj)
	if err != nil {
		// Malformed registry data is rejected before the first wire attempt.
		res.Error = err.Error()
		s.metrics.SyncOutcome(metrics.OutcomeFailure)
		return res
	}

	var created *backend.Project
	err = retry.Do(ctx, retry.Policy{
		Attempts:  s.opts.Attempts,
		Backoff:   retry.Exponential(s.opts.BackoffUnit),
		Retryable: backend.IsRetryable,
		Sleep:     s.opts.Sleep,
	}, func(ctx context.Context) error {
		s.metrics.SyncAttempt()
		p, err := s.backend.CreateProject(ctx, payload)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			// Someone else won the race; the copy is there.
			res.Success = true
			res.BackendID = id
			s.metrics.SyncOutcome(metrics.OutcomeSkipped)
			return res
		}
		res.Error = err.Error()
		s.metrics.SyncOutcome(metrics.OutcomeFailure)
		s.logger.Warn("project sync failed", "project_id", id, "error", err)
		return res
	}

	res.Success = true
	res.BackendID = created.ID
	s.metrics.SyncOutcome(metrics.OutcomeSuccess)
	s.logger.Info("project synced", "project_id", id, "backend_id", created.ID)
	return res
}

// BatchSync pushes many projects in fixed-size concurrent batches with a
// pause between batches to stay polite to the backend. Results arrive in
// completion order within each batch, so callers must not assume input
// order. An empty input returns an empty summary without touching the
// network.
func (s *Service) BatchSync(ctx context.Context, ids []string) Summary {
	summary := Summary{Total: len(ids), Results: make([]Result, 0, len(ids))}
	if len(ids) == 0 {
		return summary
	}

	var mu sync.Mutex
	for start := 0; start < len(ids); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(ids))

		var g errgroup.Group
		for _, id := range ids[start:end] {
			g.Go(func() error {
				r := s.SyncProject(ctx, id)
				mu.Lock()
				summary.Results = append(summary.Results, r)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if end < len(ids) {
			if err := s.opts.Sleep(ctx, s.opts.BatchDelay); err != nil {
				// Context gone: account for everything we never started.
				for _, id := range ids[end:] {
					summary.Results = append(summary.Results, Result{ProjectID: id, Error: err.Error()})
				}
				break
			}
		}
	}

	for _, r := range summary.Results {
		if r.Success {
			summary.Successful++
		}
	}
	summary.Failed = summary.Total - summary.Successful
	s.logger.Info("batch sync finished", "total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
	return summary
}

// VerifyConsistency lists both stores and reports drift. Missing IDs are
// registry rows with no backend copy; the count comparison additionally
// catches orphaned backend copies.
func (s *Service) VerifyConsistency(ctx context.Context) (Consistency, error) {
	rep := Consistency{MissingInBackend: []string{}}

	ids, err := s.projects.ListIDs(ctx)
	if err != nil {
		return rep, fmt.Errorf("listing registry projects: %w", err)
	}
	backendProjects, err := s.backend.ListProjects(ctx)
	if err != nil {
		return rep, fmt.Errorf("listing backend projects: %w", err)
	}

	present := make(map[string]struct{}, len(backendProjects))
	for _, bp := range backendProjects {
		present[bp.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			rep.MissingInBackend = append(rep.MissingInBackend, id)
		}
	}
	sort.Strings(rep.MissingInBackend)

	rep.PrimaryCount = len(ids)
	rep.BackendCount = len(backendProjects)
	rep.Consistent = len(rep.MissingInBackend) == 0 && rep.PrimaryCount == rep.BackendCount

	s.metrics.ConsistencyCheck(len(rep.MissingInBackend))
	s.logger.Info("consistency verified",
		"primary_count", rep.PrimaryCount,
		"backend_count", rep.BackendCount,
		"missing", len(rep.MissingInBackend),
		"consistent", rep.Consistent)
	return rep, nil
}

// CreateAndSync is the dual-write intake flow: a durable registry create
// followed by a best-effort first sync. Under KeepOnFailure a failed sync
// leaves the row for a later re-run; under RollbackOnFailure the row is
// compensated away and the failure surfaces as an error.
func (s *Service) CreateAndSync(ctx context.Context, req project.CreateRequest) (*project.Project, Result, error) {
	if s.registry == nil {
		return nil, Result{}, fmt.Errorf("%w: reconciler has no registry attached", ErrInvalidInput)
	}

	proj, err := s.registry.Create(ctx, req)
	if err != nil {
		return nil, Result{}, err
	}

	res := s.SyncProject(ctx, proj.ID)
	if !res.Success && s.opts.OnCreateFailure == RollbackOnFailure {
		if derr := s.registry.Delete(ctx, proj.ID); derr != nil {
			s.logger.Error("rollback of unsynced project failed", "project_id", proj.ID, "error", derr)
			return nil, res, fmt.Errorf("sync failed (%s) and rollback failed: %w", res.Error, derr)
		}
		return nil, res, fmt.Errorf("sync failed, registry entry rolled back: %s", res.Error)
	}
	return proj, res, nil
}

func payloadFor(proj *project.Project) (backend.ProjectPayload, error) {
	lat, lon, err := project.ParseCoordinates(proj.Coordinates)
	if err != nil {
		return backend.ProjectPayload{}, err
	}
	return backend.ProjectPayload{
		ID:           proj.ID,
		Name:         proj.Name,
		Latitude:     lat,
		Longitude:    lon,
		AreaHectares: proj.ProjectArea,
		ForestType:   proj.ForestType,
		CarbonTons:   proj.CarbonTons,
		PricePerTon:  proj.PricePerTon,
		Currency:     proj.Currency,
		Description:  proj.Description,
		CreatedAt:    proj.CreatedAt,
	}, nil
}
