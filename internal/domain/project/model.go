package project

import "time"

// Project is a carbon-offset project as held in the primary registry store.
// The registry is the source of truth; the analysis backend keeps a
// denormalized copy keyed by the same ID.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Coordinates string    `json:"coordinates"` // "lat,lon" decimal degrees
	CarbonTons  float64   `json:"carbon_tons"`
	PricePerTon float64   `json:"price_per_ton"`
	Currency    string    `json:"currency"`
	ProjectArea float64   `json:"project_area"` // hectares
	ForestType  string    `json:"forest_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
