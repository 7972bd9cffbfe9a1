package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/domain/measurement"
)

var (
	measNDVI       float64
	measCarbon     float64
	measNotes      string
	measMeasuredAt string
)

var measurementCmd = &cobra.Command{
	Use:     "measurement",
	Aliases: []string{"meas"},
	Short:   "Record and inspect vegetation measurements",
}

var measurementAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Record an NDVI measurement for a project",
	Long: `Record a vegetation measurement. NDVI must be within [0,1]; the
timestamp defaults to now and accepts RFC 3339 via --measured-at.`,
	Args: cobra.ExactArgs(1),
	RunE: runMeasurementAdd,
}

var measurementListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's measurements, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runMeasurementList,
}

var measurementLatestCmd = &cobra.Command{
	Use:   "latest <project-id>",
	Short: "Show a project's most recent measurement",
	Args:  cobra.ExactArgs(1),
	RunE:  runMeasurementLatest,
}

func init() {
	measurementAddCmd.Flags().Float64Var(&measNDVI, "ndvi", 0, "normalized difference vegetation index (0-1)")
	measurementAddCmd.Flags().Float64Var(&measCarbon, "carbon", 0, "estimated carbon tons at measurement time")
	measurementAddCmd.Flags().StringVar(&measNotes, "notes", "", "free-form notes")
	measurementAddCmd.Flags().StringVar(&measMeasuredAt, "measured-at", "", "measurement time, RFC 3339 (default now)")
	_ = measurementAddCmd.MarkFlagRequired("ndvi")

	measurementCmd.AddCommand(measurementAddCmd)
	measurementCmd.AddCommand(measurementListCmd)
	measurementCmd.AddCommand(measurementLatestCmd)
}

func runMeasurementAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	body := map[string]any{
		"ndvi":            measNDVI,
		"carbon_estimate": measCarbon,
		"notes":           measNotes,
	}
	if measMeasuredAt != "" {
		ts, err := time.Parse(time.RFC3339, measMeasuredAt)
		if err != nil {
			return fmt.Errorf("parsing --measured-at: %w (use RFC 3339, e.g. 2026-03-15T10:30:00Z)", err)
		}
		body["measured_at"] = ts
	}

	var m measurement.Measurement
	path := "/api/projects/" + url.PathEscape(args[0]) + "/measurements"
	if err := newClient().do(ctx, "POST", path, body, &m); err != nil {
		return fmt.Errorf("adding measurement: %w", err)
	}

	fmt.Printf("Recorded measurement %s for %s (NDVI %.3f at %s)\n",
		m.ID, m.ProjectID, m.NDVI, m.MeasuredAt.Format(time.RFC3339))
	return nil
}

func runMeasurementList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var ms []measurement.Measurement
	path := "/api/projects/" + url.PathEscape(args[0]) + "/measurements"
	if err := newClient().do(ctx, "GET", path, nil, &ms); err != nil {
		return fmt.Errorf("listing measurements: %w", err)
	}

	if len(ms) == 0 {
		fmt.Println("No measurements recorded.")
		return nil
	}

	fmt.Printf("%-26s %7s %12s  %s\n", "MEASURED AT", "NDVI", "CARBON (t)", "NOTES")
	for _, m := range ms {
		fmt.Printf("%-26s %7.3f %12.2f  %s\n", m.MeasuredAt.Format(time.RFC3339), m.NDVI, m.CarbonEstimate, m.Notes)
	}
	fmt.Printf("\n%d measurement(s)\n", len(ms))
	return nil
}

func runMeasurementLatest(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var m measurement.Measurement
	path := "/api/projects/" + url.PathEscape(args[0]) + "/measurements/latest"
	if err := newClient().do(ctx, "GET", path, nil, &m); err != nil {
		return fmt.Errorf("fetching latest measurement: %w", err)
	}
	return printJSON(m)
}
