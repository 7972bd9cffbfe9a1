package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verdantio/canopy/internal/domain/biomass"
	"github.com/verdantio/canopy/internal/domain/carbon"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

// registerTools wires every tool onto the server. Input and output schemas
// are inferred from the typed params in types.go.
func registerTools(server *sdkmcp.Server, svcs Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all carbon-offset projects in the registry, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListProjectsParams) (*sdkmcp.CallToolResult, ListProjectsResult, error) {
		projects, err := svcs.Registry.List(ctx)
		if err != nil {
			return nil, ListProjectsResult{}, toolError(err)
		}
		if projects == nil {
			projects = []project.Project{}
		}
		return nil, ListProjectsResult{Projects: projects}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one registry project by ID",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetProjectParams) (*sdkmcp.CallToolResult, project.Project, error) {
		proj, err := svcs.Registry.Get(ctx, params.ID)
		if err != nil {
			return nil, project.Project{}, toolError(err)
		}
		return nil, *proj, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Register a carbon-offset project and push it to the analysis backend; the sync result reports whether the backend copy was created",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params CreateProjectParams) (*sdkmcp.CallToolResult, CreateProjectResult, error) {
		proj, res, err := svcs.Reconciler.CreateAndSync(ctx, project.CreateRequest{
			ID:          params.ID,
			Name:        params.Name,
			Coordinates: params.Coordinates,
			CarbonTons:  params.CarbonTons,
			PricePerTon: params.PricePerTon,
			Currency:    params.Currency,
			ProjectArea: params.ProjectArea,
			ForestType:  params.ForestType,
			Description: params.Description,
		})
		if err != nil {
			return nil, CreateProjectResult{}, toolError(err)
		}
		return nil, CreateProjectResult{Project: *proj, Sync: res}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "estimate_credits",
		Description: "Estimate issuable carbon credits (tonnes CO2e) for a forest area, with the full term-by-term breakdown",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, params EstimateCreditsParams) (*sdkmcp.CallToolResult, carbon.Breakdown, error) {
		if params.AreaHectares <= 0 {
			return nil, carbon.Breakdown{}, &APIError{Code: "INVALID_INPUT", Message: "area_hectares must be positive", RecoveryHint: "Supply the forest area in hectares"}
		}
		coverage := carbon.DefaultCoveragePct
		if params.CoveragePct != nil {
			coverage = *params.CoveragePct
		}
		buffer := carbon.DefaultBufferPct
		if params.BufferPct != nil {
			buffer = *params.BufferPct
		}
		if coverage < 0 || coverage > 100 || buffer < 0 || buffer > 100 {
			return nil, carbon.Breakdown{}, &APIError{Code: "INVALID_INPUT", Message: "coverage_pct and buffer_pct must be between 0 and 100", RecoveryHint: "Use percentages, not fractions"}
		}
		return nil, carbon.Calculate(params.AreaHectares, params.ForestType, coverage, buffer), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_forest_types",
		Description: "List the forest biomass reference table used by the credit calculator",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, _ ListForestTypesParams) (*sdkmcp.CallToolResult, ListForestTypesResult, error) {
		return nil, ListForestTypesResult{ForestTypes: biomass.Entries()}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sync_project",
		Description: "Push one registry project to the analysis backend; re-syncing an already-synced project is a no-op",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params SyncProjectParams) (*sdkmcp.CallToolResult, reconcile.Result, error) {
		if _, err := svcs.Registry.Get(ctx, params.ID); err != nil {
			return nil, reconcile.Result{}, toolError(err)
		}
		return nil, svcs.Reconciler.SyncProject(ctx, params.ID), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sync_status",
		Description: "Report where a project currently lives: registry, backend, or both",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params SyncStatusParams) (*sdkmcp.CallToolResult, reconcile.Status, error) {
		st, err := svcs.Reconciler.Status(ctx, params.ID)
		if err != nil {
			return nil, reconcile.Status{}, toolError(err)
		}
		return nil, st, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "batch_sync",
		Description: "Sync the named projects to the analysis backend, or every registry project when no IDs are given",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params BatchSyncParams) (*sdkmcp.CallToolResult, reconcile.Summary, error) {
		ids := params.ProjectIDs
		if len(ids) == 0 {
			projects, err := svcs.Registry.List(ctx)
			if err != nil {
				return nil, reconcile.Summary{}, toolError(err)
			}
			for _, p := range projects {
				ids = append(ids, p.ID)
			}
		}
		return nil, svcs.Reconciler.BatchSync(ctx, ids), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "verify_consistency",
		Description: "Compare registry and backend project sets and report any drift",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ VerifyConsistencyParams) (*sdkmcp.CallToolResult, reconcile.Consistency, error) {
		rep, err := svcs.Reconciler.VerifyConsistency(ctx)
		if err != nil {
			return nil, reconcile.Consistency{}, toolError(err)
		}
		return nil, rep, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_measurement",
		Description: "Append an NDVI carbon measurement to a project's feed",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params AddMeasurementParams) (*sdkmcp.CallToolResult, measurement.Measurement, error) {
		req := measurement.AddRequest{
			ProjectID:      params.ProjectID,
			NDVI:           params.NDVI,
			CarbonEstimate: params.CarbonEstimate,
			Notes:          params.Notes,
		}
		if params.MeasuredAt != "" {
			at, err := time.Parse(time.RFC3339, params.MeasuredAt)
			if err != nil {
				return nil, measurement.Measurement{}, &APIError{
					Code:         "INVALID_INPUT",
					Message:      fmt.Sprintf("measured_at: %v", err),
					RecoveryHint: "Use RFC 3339, e.g. 2026-03-15T10:30:00Z",
				}
			}
			req.MeasuredAt = at
		}

		m, err := svcs.Measurements.Add(ctx, req)
		if err != nil {
			return nil, measurement.Measurement{}, toolError(err)
		}
		return nil, *m, nil
	})
}
