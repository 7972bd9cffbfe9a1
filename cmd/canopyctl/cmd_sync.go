package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/domain/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the registry with the analysis backend",
	Long: `Inspect and repair the dual-store invariant: every registry project
should have a backend copy under the same ID.`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run <project-id>",
	Short: "Push one project to the backend",
	Long: `Push a registry project to the analysis backend. Projects that already
have a backend copy are a cheap no-op, so re-running is always safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncRun,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show where a project exists",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncStatus,
}

var syncBatchCmd = &cobra.Command{
	Use:   "batch [project-id...]",
	Short: "Sync several projects, or every project when none are named",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSyncBatch,
}

var syncVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare store contents and list drift",
	RunE:  runSyncVerify,
}

func init() {
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncBatchCmd)
	syncCmd.AddCommand(syncVerifyCmd)
}

func runSyncRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var res reconcile.Result
	if err := newClient().do(ctx, "POST", "/api/projects/"+url.PathEscape(args[0])+"/sync", nil, &res); err != nil {
		return fmt.Errorf("syncing project %s: %w", args[0], err)
	}

	if res.Success {
		fmt.Printf("Project %s synced to backend as %s\n", res.ProjectID, res.BackendID)
		return nil
	}
	return fmt.Errorf("sync failed for %s: %s", res.ProjectID, res.Error)
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var st reconcile.Status
	if err := newClient().do(ctx, "GET", "/api/projects/"+url.PathEscape(args[0])+"/sync", nil, &st); err != nil {
		return fmt.Errorf("checking sync status for %s: %w", args[0], err)
	}

	fmt.Printf("Project:   %s\n", st.ProjectID)
	fmt.Printf("Registry:  %s\n", presence(st.PrimaryExists))
	fmt.Printf("Backend:   %s\n", presence(st.BackendExists))
	if st.BackendID != "" {
		fmt.Printf("Backend ID: %s\n", st.BackendID)
	}
	if st.NeedsSync {
		fmt.Printf("\nOut of sync. Run \"canopyctl sync run %s\" to repair.\n", st.ProjectID)
	} else {
		fmt.Println("\nIn sync.")
	}
	return nil
}

func runSyncBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var body any
	if len(args) > 0 {
		body = map[string]any{"project_ids": args}
	}

	var summary reconcile.Summary
	if err := newClient().do(ctx, "POST", "/api/sync/batch", body, &summary); err != nil {
		return fmt.Errorf("batch sync: %w", err)
	}

	for _, res := range summary.Results {
		if res.Success {
			fmt.Printf("  ok    %s -> %s\n", res.ProjectID, res.BackendID)
		} else {
			fmt.Printf("  FAIL  %s: %s\n", res.ProjectID, res.Error)
		}
	}
	fmt.Printf("\n%d synced, %d failed (%d total)\n", summary.Successful, summary.Failed, summary.Total)
	if summary.Failed > 0 {
		return fmt.Errorf("%d project(s) failed to sync", summary.Failed)
	}
	return nil
}

func runSyncVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var report reconcile.Consistency
	if err := newClient().do(ctx, "GET", "/api/sync/consistency", nil, &report); err != nil {
		return fmt.Errorf("verifying consistency: %w", err)
	}

	fmt.Printf("Registry projects: %d\n", report.PrimaryCount)
	fmt.Printf("Backend projects:  %d\n", report.BackendCount)
	if report.Consistent {
		fmt.Println("\nStores are consistent.")
		return nil
	}

	fmt.Printf("\nMissing in backend (%d):\n", len(report.MissingInBackend))
	for _, id := range report.MissingInBackend {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println("\nRun \"canopyctl sync batch\" to repair.")
	return nil
}

func presence(exists bool) string {
	if exists {
		return "present"
	}
	return "missing"
}
