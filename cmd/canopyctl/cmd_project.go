package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

var (
	createID          string
	createName        string
	createCoordinates string
	createCarbonTons  float64
	createPrice       float64
	createCurrency    string
	createArea        float64
	createForestType  string
	createDescription string

	updateName        string
	updateCoordinates string
	updateCarbonTons  float64
	updatePrice       float64
	updateCurrency    string
	updateArea        float64
	updateForestType  string
	updateDescription string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage registry projects",
	Long:  `Create, inspect, update, and delete carbon-offset projects in the registry.`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show a single project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectGet,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project and sync it to the analysis backend",
	Long: `Create a project in the registry and immediately push a copy to the
analysis backend. The sync outcome is reported alongside the stored
project; a failed sync leaves the registry row in place for a later
"canopyctl sync run".`,
	Args: cobra.NoArgs,
	RunE: runProjectCreate,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update project fields",
	Long:  `Update a project in the registry. Only the fields whose flags are set are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project from both stores",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectCreateCmd.Flags().StringVar(&createID, "id", "", "explicit project ID (generated when omitted)")
	projectCreateCmd.Flags().StringVar(&createName, "name", "", "project name")
	projectCreateCmd.Flags().StringVar(&createCoordinates, "coordinates", "", "site coordinates as \"lat,lon\"")
	projectCreateCmd.Flags().Float64Var(&createCarbonTons, "carbon-tons", 0, "verified carbon tonnage")
	projectCreateCmd.Flags().Float64Var(&createPrice, "price", 0, "price per ton")
	projectCreateCmd.Flags().StringVar(&createCurrency, "currency", "USD", "price currency")
	projectCreateCmd.Flags().Float64Var(&createArea, "area", 0, "project area in hectares")
	projectCreateCmd.Flags().StringVar(&createForestType, "forest-type", "", "forest type, e.g. \"Tropical Rainforest\"")
	projectCreateCmd.Flags().StringVar(&createDescription, "description", "", "free-form description")
	_ = projectCreateCmd.MarkFlagRequired("name")
	_ = projectCreateCmd.MarkFlagRequired("coordinates")
	_ = projectCreateCmd.MarkFlagRequired("area")
	_ = projectCreateCmd.MarkFlagRequired("forest-type")

	projectUpdateCmd.Flags().StringVar(&updateName, "name", "", "project name")
	projectUpdateCmd.Flags().StringVar(&updateCoordinates, "coordinates", "", "site coordinates as \"lat,lon\"")
	projectUpdateCmd.Flags().Float64Var(&updateCarbonTons, "carbon-tons", 0, "verified carbon tonnage")
	projectUpdateCmd.Flags().Float64Var(&updatePrice, "price", 0, "price per ton")
	projectUpdateCmd.Flags().StringVar(&updateCurrency, "currency", "", "price currency")
	projectUpdateCmd.Flags().Float64Var(&updateArea, "area", 0, "project area in hectares")
	projectUpdateCmd.Flags().StringVar(&updateForestType, "forest-type", "", "forest type")
	projectUpdateCmd.Flags().StringVar(&updateDescription, "description", "", "free-form description")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectGetCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var projects []project.Project
	if err := newClient().do(ctx, "GET", "/api/projects", nil, &projects); err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Printf("%-14s %-30s %-22s %10s  %s\n", "ID", "NAME", "FOREST TYPE", "AREA (ha)", "COORDINATES")
	for _, p := range projects {
		fmt.Printf("%-14s %-30s %-22s %10.1f  %s\n", p.ID, truncate(p.Name, 30), truncate(p.ForestType, 22), p.ProjectArea, p.Coordinates)
	}
	fmt.Printf("\n%d project(s)\n", len(projects))
	return nil
}

func runProjectGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	var p project.Project
	if err := newClient().do(ctx, "GET", "/api/projects/"+url.PathEscape(args[0]), nil, &p); err != nil {
		return fmt.Errorf("fetching project %s: %w", args[0], err)
	}
	return printJSON(p)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	body := map[string]any{
		"id":            createID,
		"name":          createName,
		"coordinates":   createCoordinates,
		"carbon_tons":   createCarbonTons,
		"price_per_ton": createPrice,
		"currency":      createCurrency,
		"project_area":  createArea,
		"forest_type":   createForestType,
		"description":   createDescription,
	}

	var resp struct {
		Project project.Project  `json:"project"`
		Sync    reconcile.Result `json:"sync"`
	}
	if err := newClient().do(ctx, "POST", "/api/projects", body, &resp); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	fmt.Printf("Created project %s (%s)\n", resp.Project.ID, resp.Project.Name)
	if resp.Sync.Success {
		fmt.Printf("Synced to backend as %s\n", resp.Sync.BackendID)
	} else {
		fmt.Printf("Backend sync failed: %s\n", resp.Sync.Error)
		fmt.Printf("Run \"canopyctl sync run %s\" to retry.\n", resp.Project.ID)
	}
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	// Only flags the operator actually set travel in the PUT body; absent
	// fields keep their stored values.
	body := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("name") {
		body["name"] = updateName
	}
	if flags.Changed("coordinates") {
		body["coordinates"] = updateCoordinates
	}
	if flags.Changed("carbon-tons") {
		body["carbon_tons"] = updateCarbonTons
	}
	if flags.Changed("price") {
		body["price_per_ton"] = updatePrice
	}
	if flags.Changed("currency") {
		body["currency"] = updateCurrency
	}
	if flags.Changed("area") {
		body["project_area"] = updateArea
	}
	if flags.Changed("forest-type") {
		body["forest_type"] = updateForestType
	}
	if flags.Changed("description") {
		body["description"] = updateDescription
	}
	if len(body) == 0 {
		return fmt.Errorf("nothing to update: set at least one field flag")
	}

	var p project.Project
	if err := newClient().do(ctx, "PUT", "/api/projects/"+url.PathEscape(args[0]), body, &p); err != nil {
		return fmt.Errorf("updating project %s: %w", args[0], err)
	}
	fmt.Printf("Updated project %s\n", p.ID)
	return printJSON(p)
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	if err := newClient().do(ctx, "DELETE", "/api/projects/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return fmt.Errorf("deleting project %s: %w", args[0], err)
	}
	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
