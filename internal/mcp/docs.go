package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `canopy is a carbon-offset project registry with an attached analysis backend.

Core concepts (keep this mental model small):
- Project: a registered forest area with coordinates, size, forest type, and a credit estimate. The registry is the source of truth.
- Backend: a separate analysis service holding its own copy of each project for satellite NDVI analysis. Copies share the project ID.
- Sync: pushing a registry project to the backend. Syncs are idempotent; an existing backend copy is a cheap skip.
- Measurement: an append-only NDVI observation attached to a project.

Rules of engagement (default workflow):
1) Orient: list_projects, or get_project when you already have an ID.
2) Estimate before registering: estimate_credits shows the full credit arithmetic; list_forest_types shows the biomass table it draws from.
3) Register: create_project both stores the project and attempts the first sync. Read the returned sync result; success=false means the backend copy is still missing.
4) Repair: sync_project for one project, batch_sync for many, verify_consistency to find drift. Sync failures are results, not errors; inspect the error field.
5) Observe: add_measurement appends NDVI observations (0 to 1).

Docs (progressive disclosure):
- canopy://docs/index (what to read when)
- canopy://docs/credits (the credit formula and its terms)
- canopy://docs/sync (the dual-store model and repair workflow)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "canopy://docs/index",
		Name:        "docs_index",
		Title:       "canopy docs index",
		Description: "Entry point for agent-facing docs: what exists and what to read.",
		Content: `# canopy: Agent Docs Index

Keep your baseline context small and load deeper docs only when needed.

## Quick start (no deep docs)

1. ` + "`list_projects`" + ` to see the registry.
2. ` + "`estimate_credits`" + ` to preview a credit estimate before registering.
3. ` + "`create_project`" + ` to register; check the returned sync result.
4. ` + "`verify_consistency`" + ` / ` + "`batch_sync`" + ` to find and repair drift.

## Docs (read on demand)

- ` + "`canopy://docs/credits`" + ` — the credit formula, its constants, and how forest types resolve.
- ` + "`canopy://docs/sync`" + ` — why there are two stores and how to keep them aligned.

## Capabilities & intentional limitations

- Sync is one-directional: registry rows push to the backend, never the reverse.
- Sync outcomes are returned as results with a ` + "`success`" + ` flag; only invalid input or an unknown project is reported as a tool error.
`,
	},
	{
		URI:         "canopy://docs/credits",
		Name:        "docs_credits",
		Title:       "Credit estimation",
		Description: "The carbon credit formula, its constants, and forest-type resolution.",
		Content: `# Credit estimation

## Formula

` + "`credits = area_ha * coverage/100 * biomass(forest_type) * 0.47 * 3.67 * (1 - buffer/100)`" + `

- 0.47: carbon fraction of dry biomass.
- 3.67: molar mass ratio CO2/C.
- coverage defaults to 85%, buffer to 20%.
- The result is rounded to two decimals.

## Forest types

` + "`list_forest_types`" + ` returns the reference table (tonnes dry matter per hectare, with source and year). Labels resolve case-insensitively: exact match first, then legacy aliases, then substring. Anything else falls back to the mixed-forest average, so estimation never fails on an unknown label — check ` + "`biomass_match`" + ` in the breakdown to see which path applied.

## Reading the breakdown

` + "`estimate_credits`" + ` returns every intermediate term (effective area, total biomass, carbon tonnes, gross CO2e, buffer deduction) plus a human-readable ` + "`formula`" + ` string, so you can show the arithmetic instead of a bare number.
`,
	},
	{
		URI:         "canopy://docs/sync",
		Name:        "docs_sync",
		Title:       "Dual-store sync",
		Description: "The registry/backend split and the repair workflow for drift.",
		Content: `# Dual-store sync

## The model

The registry (this service) owns project records. The analysis backend keeps its own copy of each project for satellite NDVI work. Both copies share the project ID; the registry is always the source of truth.

## Normal flow

` + "`create_project`" + ` writes the registry row, then attempts the first sync. A failed first sync does not delete the row (by default); the project simply stays unsynced.

## Finding and repairing drift

1. ` + "`verify_consistency`" + ` compares both stores and lists registry IDs missing in the backend.
2. ` + "`sync_project`" + ` pushes one project; ` + "`batch_sync`" + ` pushes many (or all, when called without IDs).
3. Re-running a sync is safe: an existing backend copy is detected and skipped.

## Reading sync results

Every sync returns ` + "`{project_id, backend_id, success, error}`" + `. ` + "`success=false`" + ` with an ` + "`error`" + ` string means the backend rejected or never received the project — the registry row is unaffected. Retry later or investigate the backend.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
