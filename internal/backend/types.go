package backend

import "time"

// ProjectPayload is the create body for the analysis backend. The registry's
// "lat,lon" string is split into numeric fields here; both stores share the
// same project ID.
type ProjectPayload struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	AreaHectares float64   `json:"area_hectares"`
	ForestType   string    `json:"forest_type"`
	CarbonTons   float64   `json:"carbon_tons"`
	PricePerTon  float64   `json:"price_per_ton"`
	Currency     string    `json:"currency"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project is the backend's denormalized copy of a registry project.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	AreaHectares float64    `json:"area_hectares"`
	ForestType   string     `json:"forest_type"`
	CarbonTons   float64    `json:"carbon_tons"`
	PricePerTon  float64    `json:"price_per_ton"`
	Currency     string     `json:"currency"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
}

// AnalysisStatus is the backend's reply to an analysis trigger.
type AnalysisStatus struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
}

// LocationCheck is a satellite point probe for a coordinate pair.
type LocationCheck struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	NDVI       float64 `json:"ndvi"`
	Vegetation bool    `json:"vegetation_detected"`
	Satellite  string  `json:"satellite,omitempty"`
}
