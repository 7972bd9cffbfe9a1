// Package mcp exposes the registry to agents as typed MCP tools. The tool
// surface mirrors the REST API: registry CRUD, credit estimation, the
// reference table, dual-store sync, and the measurement feed.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

// Registry defines the project operations needed by the tool surface.
type Registry interface {
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
}

// Reconciler defines the sync operations needed by the tool surface.
type Reconciler interface {
	CreateAndSync(ctx context.Context, req project.CreateRequest) (*project.Project, reconcile.Result, error)
	SyncProject(ctx context.Context, id string) reconcile.Result
	Status(ctx context.Context, id string) (reconcile.Status, error)
	BatchSync(ctx context.Context, ids []string) reconcile.Summary
	VerifyConsistency(ctx context.Context) (reconcile.Consistency, error)
}

// Measurements defines the measurement operations needed by the tool surface.
type Measurements interface {
	Add(ctx context.Context, req measurement.AddRequest) (*measurement.Measurement, error)
}

// Services contains the domain services behind the tools.
type Services struct {
	Registry     Registry
	Reconciler   Reconciler
	Measurements Measurements
}

// Config contains server configuration.
type Config struct {
	Services Services
	// AuthToken enables static bearer auth when non-empty. Ignored in stdio
	// mode, which is local-only by definition.
	AuthToken     string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "canopy",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	if cfg.TransportMode != "stdio" && cfg.AuthToken != "" {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
