package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/domain/biomass"
	"github.com/verdantio/canopy/internal/domain/carbon"
)

var (
	estimateArea       float64
	estimateForestType string
	estimateCoverage   float64
	estimateBuffer     float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate issuable carbon credits for a hypothetical project",
	Long: `Run the credit calculator without touching the registry.

The forest type is resolved against the built-in biomass table (exact
name, legacy alias, or substring); unknown labels fall back to the
mixed-forest average, which the output flags as "fallback".`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

var forestTypesCmd = &cobra.Command{
	Use:   "forest-types",
	Short: "List the biomass reference table",
	Args:  cobra.NoArgs,
	RunE:  runForestTypes,
}

func init() {
	estimateCmd.Flags().Float64Var(&estimateArea, "area", 0, "project area in hectares")
	estimateCmd.Flags().StringVar(&estimateForestType, "forest-type", "", "forest type label")
	estimateCmd.Flags().Float64Var(&estimateCoverage, "coverage", carbon.DefaultCoveragePct, "canopy coverage percent (0-100)")
	estimateCmd.Flags().Float64Var(&estimateBuffer, "buffer", carbon.DefaultBufferPct, "risk buffer percent (0-100)")
	_ = estimateCmd.MarkFlagRequired("area")
	_ = estimateCmd.MarkFlagRequired("forest-type")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	body := map[string]any{
		"area_hectares": estimateArea,
		"forest_type":   estimateForestType,
	}
	if cmd.Flags().Changed("coverage") {
		body["coverage_pct"] = estimateCoverage
	}
	if cmd.Flags().Changed("buffer") {
		body["buffer_pct"] = estimateBuffer
	}

	var b carbon.Breakdown
	if err := newClient().do(ctx, "POST", "/api/estimate", body, &b); err != nil {
		return fmt.Errorf("estimating credits: %w", err)
	}

	fmt.Printf("Forest type:      %s (%s match, %s %d)\n", b.ForestType, b.BiomassMatch, b.BiomassSource, b.BiomassYear)
	fmt.Printf("Biomass density:  %.1f t/ha\n", b.BiomassPerHectare)
	fmt.Printf("Effective area:   %.2f ha (%.0f%% coverage of %.2f ha)\n", b.EffectiveAreaHectares, b.CoveragePct, b.AreaHectares)
	fmt.Printf("Total biomass:    %.2f t\n", b.TotalBiomassTons)
	fmt.Printf("Carbon content:   %.2f t\n", b.CarbonTons)
	fmt.Printf("Gross CO2e:       %.2f t\n", b.GrossCO2eTons)
	fmt.Printf("Risk buffer:      %.2f t (%.0f%%)\n", b.BufferTons, b.BufferPct)
	fmt.Printf("\nIssuable credits: %.2f tCO2e\n", b.CarbonCredits)
	return nil
}

func runForestTypes(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var entries []biomass.Entry
	if err := newClient().do(ctx, "GET", "/api/forest-types", nil, &entries); err != nil {
		return fmt.Errorf("listing forest types: %w", err)
	}

	fmt.Printf("%-28s %12s  %s\n", "FOREST TYPE", "BIOMASS t/ha", "SOURCE")
	for _, e := range entries {
		fmt.Printf("%-28s %12.1f  %s (%d)\n", e.ForestType, e.BiomassPerHectare, e.Source, e.Year)
	}
	return nil
}
