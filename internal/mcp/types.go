package mcp

import (
	"github.com/verdantio/canopy/internal/domain/biomass"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

type ListProjectsParams struct{}

type GetProjectParams struct {
	ID string `json:"id" jsonschema:"registry project ID"`
}

type CreateProjectParams struct {
	ID          string  `json:"id,omitempty" jsonschema:"unique project ID (generated when omitted)"`
	Name        string  `json:"name" jsonschema:"project display name"`
	Coordinates string  `json:"coordinates" jsonschema:"location as 'lat,lon' decimal degrees"`
	CarbonTons  float64 `json:"carbon_tons,omitempty" jsonschema:"sequestered carbon in tonnes (estimated from area when omitted)"`
	PricePerTon float64 `json:"price_per_ton,omitempty" jsonschema:"credit price per tonne"`
	Currency    string  `json:"currency,omitempty" jsonschema:"3-letter ISO currency code, default USD"`
	ProjectArea float64 `json:"project_area" jsonschema:"project area in hectares"`
	ForestType  string  `json:"forest_type" jsonschema:"forest type label, see list_forest_types"`
	Description string  `json:"description,omitempty" jsonschema:"free-form project description"`
}

type EstimateCreditsParams struct {
	AreaHectares float64  `json:"area_hectares" jsonschema:"forest area in hectares"`
	ForestType   string   `json:"forest_type" jsonschema:"forest type label, see list_forest_types"`
	CoveragePct  *float64 `json:"coverage_pct,omitempty" jsonschema:"canopy coverage percentage 0-100, default 85"`
	BufferPct    *float64 `json:"buffer_pct,omitempty" jsonschema:"risk buffer percentage 0-100, default 20"`
}

type ListForestTypesParams struct{}

type SyncProjectParams struct {
	ID string `json:"id" jsonschema:"registry project ID to push to the analysis backend"`
}

type SyncStatusParams struct {
	ID string `json:"id" jsonschema:"registry project ID"`
}

type BatchSyncParams struct {
	ProjectIDs []string `json:"project_ids,omitempty" jsonschema:"project IDs to sync (every registry project when omitted)"`
}

type VerifyConsistencyParams struct{}

type AddMeasurementParams struct {
	ProjectID      string  `json:"project_id" jsonschema:"registry project ID"`
	MeasuredAt     string  `json:"measured_at,omitempty" jsonschema:"observation time, RFC 3339 (defaults to now)"`
	NDVI           float64 `json:"ndvi" jsonschema:"normalized difference vegetation index, 0 to 1"`
	CarbonEstimate float64 `json:"carbon_estimate,omitempty" jsonschema:"estimated sequestered carbon in tonnes"`
	Notes          string  `json:"notes,omitempty" jsonschema:"free-form observation notes"`
}

type ListProjectsResult struct {
	Projects []project.Project `json:"projects"`
}

type CreateProjectResult struct {
	Project project.Project  `json:"project"`
	Sync    reconcile.Result `json:"sync"`
}

type ListForestTypesResult struct {
	ForestTypes []biomass.Entry `json:"forest_types"`
}
