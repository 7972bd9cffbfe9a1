package measurement

import "time"

// Measurement is one satellite-derived carbon reading for a project. Rows are
// append-only: corrections arrive as new measurements, never as edits.
type Measurement struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	MeasuredAt     time.Time `json:"measured_at"`
	NDVI           float64   `json:"ndvi"`
	CarbonEstimate float64   `json:"carbon_estimate"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
