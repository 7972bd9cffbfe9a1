package carbon

import (
	"fmt"
	"math"

	"github.com/verdantio/canopy/internal/domain/biomass"
)

// Conversion constants for the credit formula. CarbonFraction is the carbon
// share of dry biomass, CO2ConversionFactor the molar mass ratio CO2/C.
const (
	CarbonFraction      = 0.47
	CO2ConversionFactor = 3.67
)

// Defaults applied by the surfaces when a request omits the optional terms.
const (
	DefaultCoveragePct = 85.0
	DefaultBufferPct   = 20.0
)

// Breakdown carries every intermediate term of a credit estimate so surfaces
// can show the arithmetic instead of a bare number.
type Breakdown struct {
	AreaHectares float64 `json:"area_hectares"`
	ForestType   string  `json:"forest_type"`
	CoveragePct  float64 `json:"coverage_pct"`
	BufferPct    float64 `json:"buffer_pct"`

	BiomassPerHectare float64       `json:"biomass_per_hectare"`
	BiomassSource     string        `json:"biomass_source"`
	BiomassYear       int           `json:"biomass_year"`
	BiomassMatch      biomass.Match `json:"biomass_match"`

	EffectiveAreaHectares float64 `json:"effective_area_hectares"`
	TotalBiomassTons      float64 `json:"total_biomass_tons"`
	CarbonTons            float64 `json:"carbon_tons"`
	GrossCO2eTons         float64 `json:"gross_co2e_tons"`
	BufferTons            float64 `json:"buffer_tons"`

	CarbonCredits float64 `json:"carbon_credits"`
	Formula       string  `json:"formula"`
}

// CalculateCredits estimates issuable carbon credits (tonnes CO2e) for a
// forest project:
//
//	area * coverage/100 * biomass(forestType) * 0.47 * 3.67 * (1 - buffer/100)
//
// rounded to two decimals. Unknown forest types use the mixed-forest average,
// so the function never fails; a non-positive area yields zero.
func CalculateCredits(areaHa float64, forestType string, coveragePct, bufferPct float64) float64 {
	if areaHa <= 0 {
		return 0
	}
	gross := areaHa * (coveragePct / 100) * biomass.BiomassPerHectare(forestType) * CarbonFraction * CO2ConversionFactor
	return round2(gross * (1 - bufferPct/100))
}

// Calculate returns the full term-by-term breakdown for the same formula.
// Breakdown.CarbonCredits always equals CalculateCredits for the same inputs.
func Calculate(areaHa float64, forestType string, coveragePct, bufferPct float64) Breakdown {
	entry, match, _ := biomass.Resolve(forestType)

	effective := areaHa * (coveragePct / 100)
	totalBiomass := effective * entry.BiomassPerHectare
	carbonTons := totalBiomass * CarbonFraction
	grossCO2e := carbonTons * CO2ConversionFactor
	buffer := grossCO2e * (bufferPct / 100)

	return Breakdown{
		AreaHectares:          areaHa,
		ForestType:            forestType,
		CoveragePct:           coveragePct,
		BufferPct:             bufferPct,
		BiomassPerHectare:     entry.BiomassPerHectare,
		BiomassSource:         entry.Source,
		BiomassYear:           entry.Year,
		BiomassMatch:          match,
		EffectiveAreaHectares: round2(effective),
		TotalBiomassTons:      round2(totalBiomass),
		CarbonTons:            round2(carbonTons),
		GrossCO2eTons:         round2(grossCO2e),
		BufferTons:            round2(buffer),
		CarbonCredits:         CalculateCredits(areaHa, forestType, coveragePct, bufferPct),
		Formula: fmt.Sprintf("%.1f ha * %.0f%% cover * %.0f t/ha * %.2f * %.2f * (1 - %.0f%% buffer) = %.2f tCO2e",
			areaHa, coveragePct, entry.BiomassPerHectare, CarbonFraction, CO2ConversionFactor, bufferPct,
			CalculateCredits(areaHa, forestType, coveragePct, bufferPct)),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
