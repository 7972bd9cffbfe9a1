package biomass

// DefaultBiomassPerHectare is the mixed-forest average applied when a label
// matches nothing in the table.
const DefaultBiomassPerHectare = 150

// entries is ordered: partial matching scans it top to bottom, so resolution
// stays deterministic when a label could hit more than one row.
var entries = []Entry{
	{"Tropical Rainforest", 280, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Tropical Moist Deciduous Forest", 180, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Tropical Dry Forest", 130, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Tropical Shrubland", 70, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Tropical Mountain Forest", 140, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Subtropical Humid Forest", 220, "IPCC 2019 Refinement Table 4.7", 2019},
	{"Temperate Oceanic Forest", 180, "IPCC 2019 Refinement Table 4.7", 2019},
	{"Temperate Continental Forest", 120, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Temperate Mountain Forest", 100, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Boreal Coniferous Forest", 50, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Boreal Mountain Forest", 30, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Boreal Tundra Woodland", 15, "IPCC 2006 Guidelines Vol.4 Table 4.7", 2006},
	{"Mediterranean Forest", 80, "FAO FRA 2020", 2020},
	{"Mangrove Forest", 190, "IPCC 2013 Wetlands Supplement", 2013},
	{"Mixed Forest", DefaultBiomassPerHectare, "FAO FRA 2020 mixed forest average", 2020},
}

// aliases maps legacy labels still present in older registry rows to current
// ones. Values may themselves be aliases; resolution follows the chain.
var aliases = map[string]string{
	"rainforest":       "Tropical Rainforest",
	"jungle":           "Rainforest",
	"tropical forest":  "Tropical Rainforest",
	"temperate forest": "Temperate Oceanic Forest",
	"boreal forest":    "Boreal Coniferous Forest",
	"taiga":            "Boreal Forest",
	"conifer forest":   "Boreal Coniferous Forest",
	"cloud forest":     "Tropical Mountain Forest",
	"mangrove":         "Mangrove Forest",
	"dry forest":       "Tropical Dry Forest",
	"woodland":         "Mixed Forest",
}

var byType = func() map[string]*Entry {
	m := make(map[string]*Entry, len(entries))
	for i := range entries {
		m[normalize(entries[i].ForestType)] = &entries[i]
	}
	return m
}()
