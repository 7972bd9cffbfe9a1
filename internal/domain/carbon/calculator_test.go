package carbon_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/domain/biomass"
	"github.com/verdantio/canopy/internal/domain/carbon"
)

// 100 ha of tropical rainforest at the default 85% coverage and 20% buffer:
// 100 * 0.85 * 280 * 0.47 * 3.67 * 0.80 = 32842.096 -> 32842.10 at two decimals.
func TestCalculateCreditsReferenceScenario(t *testing.T) {
	got := carbon.CalculateCredits(100, "Tropical Rainforest", carbon.DefaultCoveragePct, carbon.DefaultBufferPct)
	require.InDelta(t, 32842.10, got, 1e-9)
}

func TestCalculateCreditsRoundsToTwoDecimals(t *testing.T) {
	got := carbon.CalculateCredits(1, "Tropical Rainforest", 85, 20)
	require.InDelta(t, 328.42, got, 1e-9)

	got = carbon.CalculateCredits(3.3, "Boreal Tundra Woodland", 50, 10)
	// 3.3 * 0.5 * 15 * 0.47 * 3.67 * 0.9 = 38.42033... -> 38.42
	require.InDelta(t, 38.42, got, 1e-9)
}

func TestCalculateCreditsNonPositiveArea(t *testing.T) {
	require.Zero(t, carbon.CalculateCredits(0, "Tropical Rainforest", 85, 20))
	require.Zero(t, carbon.CalculateCredits(-12, "Tropical Rainforest", 85, 20))
}

func TestCalculateCreditsFullBufferZeroesOut(t *testing.T) {
	require.Zero(t, carbon.CalculateCredits(100, "Tropical Rainforest", 85, 100))
	// No clamping above 100: the result goes negative and callers see it.
	require.Negative(t, carbon.CalculateCredits(100, "Tropical Rainforest", 85, 120))
}

func TestCalculateCreditsZeroCoverage(t *testing.T) {
	require.Zero(t, carbon.CalculateCredits(100, "Tropical Rainforest", 0, 20))
}

func TestCalculateCreditsUnknownForestTypeUsesFallback(t *testing.T) {
	unknown := carbon.CalculateCredits(10, "no such biome", 85, 20)
	mixed := carbon.CalculateCredits(10, "Mixed Forest", 85, 20)
	require.Equal(t, mixed, unknown)
	require.Positive(t, unknown)
}

func TestCalculateCreditsMonotonicInArea(t *testing.T) {
	small := carbon.CalculateCredits(10, "Tropical Dry Forest", 85, 20)
	large := carbon.CalculateCredits(20, "Tropical Dry Forest", 85, 20)
	require.Greater(t, large, small)
	require.InDelta(t, 2*small, large, 0.02) // rounding may differ by a cent
}

func TestCalculateBreakdownMatchesCredits(t *testing.T) {
	cases := []struct {
		area     float64
		forest   string
		coverage float64
		buffer   float64
	}{
		{100, "Tropical Rainforest", 85, 20},
		{42.5, "Mangrove Forest", 70, 15},
		{7, "taiga", 90, 25},
		{1234, "unknown biome", 85, 20},
	}
	for _, tc := range cases {
		b := carbon.Calculate(tc.area, tc.forest, tc.coverage, tc.buffer)
		require.Equal(t, carbon.CalculateCredits(tc.area, tc.forest, tc.coverage, tc.buffer), b.CarbonCredits, "%+v", tc)
	}
}

func TestCalculateBreakdownTerms(t *testing.T) {
	b := carbon.Calculate(100, "Tropical Rainforest", 85, 20)

	require.Equal(t, 280.0, b.BiomassPerHectare)
	require.Equal(t, biomass.MatchExact, b.BiomassMatch)
	require.Equal(t, 2006, b.BiomassYear)
	require.InDelta(t, 85.0, b.EffectiveAreaHectares, 1e-9)
	require.InDelta(t, 23800.0, b.TotalBiomassTons, 1e-9)
	require.InDelta(t, 11186.0, b.CarbonTons, 1e-9)
	require.InDelta(t, 41052.62, b.GrossCO2eTons, 1e-9)
	require.InDelta(t, 8210.52, b.BufferTons, 1e-9)
	require.InDelta(t, 32842.10, b.CarbonCredits, 1e-9)
	require.Contains(t, b.Formula, "280 t/ha")
	require.Contains(t, b.Formula, "32842.10")
}

func TestCalculateBreakdownReportsFallbackProvenance(t *testing.T) {
	b := carbon.Calculate(10, "no such biome", 85, 20)
	require.Equal(t, biomass.MatchFallback, b.BiomassMatch)
	require.Equal(t, float64(biomass.DefaultBiomassPerHectare), b.BiomassPerHectare)
}
