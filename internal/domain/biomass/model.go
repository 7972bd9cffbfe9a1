package biomass

// Entry is one row of the forest biomass reference table.
type Entry struct {
	ForestType        string  `json:"forest_type"`
	BiomassPerHectare float64 `json:"biomass_per_hectare"` // tonnes dry matter per hectare
	Source            string  `json:"source"`
	Year              int     `json:"year"`
}

// Match reports how a forest-type label was resolved against the table.
type Match string

const (
	// MatchExact means the label equals a canonical forest type.
	MatchExact Match = "exact"
	// MatchAlias means the label went through the legacy alias table.
	MatchAlias Match = "alias"
	// MatchPartial means the label matched a canonical type by substring.
	MatchPartial Match = "partial"
	// MatchFallback means nothing matched and the mixed-forest average applies.
	MatchFallback Match = "fallback"
)
