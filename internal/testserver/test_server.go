// Package testserver wires a complete in-process stack for integration and
// functional tests: an in-memory SQLite registry, a fake analysis backend,
// the real services, and the REST router with the MCP mount.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
	"github.com/verdantio/canopy/internal/domain/report"
	"github.com/verdantio/canopy/internal/mcp"
	"github.com/verdantio/canopy/internal/sqlite"
	"github.com/verdantio/canopy/internal/transport"
)

// TestServer bundles the running stack with the handles tests poke at
// directly: the fake backend for failure injection and the blob store for
// archive assertions.
type TestServer struct {
	Server  *httptest.Server
	Backend *FakeBackend
	DB      *sqlite.DB
	Blobs   *blob.MemoryStore
	Token   string
}

// New starts a full stack for one test. A non-empty token enables bearer
// auth on mutating REST methods and on the MCP mount.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	projectRepo := sqlite.NewProjectRepository(db)
	measurementRepo := sqlite.NewMeasurementRepository(db)

	fake := NewFakeBackend()
	be := backend.NewClient(fake.URL(), backend.Options{Timeout: 5 * time.Second}, nil)
	blobs := blob.NewMemoryStore()

	projectSvc := project.NewService(projectRepo, be, nil)
	reconciler := reconcile.NewService(projectRepo, projectSvc, be, reconcile.Options{
		Attempts: 3,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	}, nil, nil)
	measurementSvc := measurement.NewService(measurementRepo, projectRepo, nil)
	reportSvc := report.NewService(be, blobs, projectRepo, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Registry:     projectSvc,
			Reconciler:   reconciler,
			Measurements: measurementSvc,
		},
		AuthToken:     token,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	router := transport.NewServer(transport.Services{
		Projects:     projectSvc,
		Reconciler:   reconciler,
		Measurements: measurementSvc,
		Reports:      reportSvc,
		Analyzer:     be,
	}, transport.Options{
		AuthToken:  token,
		MCPHandler: mcpHandler,
	})

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:  server,
		Backend: fake,
		DB:      db,
		Blobs:   blobs,
		Token:   token,
	}

	t.Cleanup(func() {
		server.Close()
		fake.Close()
		_ = db.Close()
	})

	return ts
}
