package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/backend"
)

var (
	satLat float64
	satLon float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <project-id>",
	Short: "Trigger a satellite analysis run on the backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var satelliteCmd = &cobra.Command{
	Use:   "satellite",
	Short: "Probe satellite coverage for a coordinate pair",
	Long: `Ask the analysis backend whether its satellite sources cover a point
and what vegetation it sees there. Useful before creating a project.`,
	Args: cobra.NoArgs,
	RunE: runSatellite,
}

func init() {
	satelliteCmd.Flags().Float64Var(&satLat, "lat", 0, "latitude in decimal degrees")
	satelliteCmd.Flags().Float64Var(&satLon, "lon", 0, "longitude in decimal degrees")
	_ = satelliteCmd.MarkFlagRequired("lat")
	_ = satelliteCmd.MarkFlagRequired("lon")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var status backend.AnalysisStatus
	path := "/api/projects/" + url.PathEscape(args[0]) + "/analyze"
	if err := newClient().do(ctx, "POST", path, nil, &status); err != nil {
		return fmt.Errorf("triggering analysis: %w", err)
	}

	fmt.Printf("Analysis for %s: %s\n", status.ProjectID, status.Status)
	return nil
}

func runSatellite(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(satLat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(satLon, 'f', -1, 64))

	var check backend.LocationCheck
	if err := newClient().do(ctx, "GET", "/api/satellite/test?"+query.Encode(), nil, &check); err != nil {
		return fmt.Errorf("probing location: %w", err)
	}

	fmt.Printf("Location:   %.4f, %.4f\n", check.Latitude, check.Longitude)
	fmt.Printf("NDVI:       %.3f\n", check.NDVI)
	fmt.Printf("Vegetation: %v\n", check.Vegetation)
	if check.Satellite != "" {
		fmt.Printf("Satellite:  %s\n", check.Satellite)
	}
	return nil
}
