package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/blob"
)

var (
	reportOutput  string
	reportArchive bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch and archive backend PDF reports",
}

var reportFetchCmd = &cobra.Command{
	Use:   "fetch <project-id>",
	Short: "Download a project's current PDF report",
	Long: `Download the analysis backend's current PDF report for a project.
With --archive a copy is stored in the report archive first and its
key is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportFetch,
}

var reportListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List archived report snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportList,
}

func init() {
	reportFetchCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the PDF here (default <project-id>.pdf)")
	reportFetchCmd.Flags().BoolVar(&reportArchive, "archive", false, "archive a snapshot before returning it")

	reportCmd.AddCommand(reportFetchCmd)
	reportCmd.AddCommand(reportListCmd)
}

func runReportFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	path := "/api/projects/" + url.PathEscape(args[0]) + "/report"
	if reportArchive {
		path += "?archive=true"
	}

	resp, data, err := newClient().doRaw(ctx, "GET", path, nil)
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}
	if err := checkStatus(resp, data); err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}

	out := reportOutput
	if out == "" {
		out = args[0] + ".pdf"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
	if key := resp.Header.Get("X-Report-Archive-Key"); key != "" {
		fmt.Printf("Archived as %s\n", key)
	}
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var infos []blob.Info
	path := "/api/projects/" + url.PathEscape(args[0]) + "/reports"
	if err := newClient().do(ctx, "GET", path, nil, &infos); err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No archived reports.")
		return nil
	}

	fmt.Printf("%-52s %10s  %s\n", "KEY", "SIZE", "LAST MODIFIED")
	for _, info := range infos {
		fmt.Printf("%-52s %10d  %s\n", info.Key, info.Size, info.LastModified.Format(time.RFC3339))
	}
	return nil
}
