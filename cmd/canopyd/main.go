package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/config"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
	"github.com/verdantio/canopy/internal/domain/report"
	"github.com/verdantio/canopy/internal/mcp"
	"github.com/verdantio/canopy/internal/metrics"
	"github.com/verdantio/canopy/internal/postgres"
	"github.com/verdantio/canopy/internal/repository"
	"github.com/verdantio/canopy/internal/sqlite"
	"github.com/verdantio/canopy/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	stdioMode := cfg.MCP.Enabled && cfg.MCP.Mode == "stdio"

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if stdioMode {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("CANOPY_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	projectRepo, measurementRepo, store, err := openStore(cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	blobStore, err := blob.Open(context.Background(), blob.Config{
		Driver: blob.Driver(cfg.Blob.Driver),
		Root:   cfg.Blob.Root,
		S3: blob.S3Config{
			Bucket:          cfg.Blob.S3.Bucket,
			Region:          cfg.Blob.S3.Region,
			Endpoint:        cfg.Blob.S3.Endpoint,
			PathStyle:       cfg.Blob.S3.PathStyle,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to open blob store", "driver", cfg.Blob.Driver, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	be := backend.NewClient(cfg.Backend.BaseURL, backend.Options{
		Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		APIKey:  cfg.Backend.APIKey,
		Metrics: m,
	}, logger)

	projectSvc := project.NewService(projectRepo, be, logger)
	reconcileSvc := reconcile.NewService(projectRepo, projectSvc, be, reconcile.Options{
		Attempts:        cfg.Sync.Attempts,
		BatchSize:       cfg.Sync.BatchSize,
		BatchDelay:      time.Duration(cfg.Sync.BatchDelaySeconds) * time.Second,
		OnCreateFailure: reconcile.FailurePolicy(cfg.Sync.OnFailure),
	}, m, logger)
	measurementSvc := measurement.NewService(measurementRepo, projectRepo, logger)
	reportSvc := report.NewService(be, blobStore, projectRepo, logger)

	var mcpServer *sdkmcp.Server
	if cfg.MCP.Enabled {
		var mcpToken string
		if cfg.Auth.Enabled {
			mcpToken = cfg.Auth.Token
		}
		mcpServer = mcp.NewServer(mcp.Config{
			Services: mcp.Services{
				Registry:     projectSvc,
				Reconciler:   reconcileSvc,
				Measurements: measurementSvc,
			},
			AuthToken:     mcpToken,
			TransportMode: cfg.MCP.Mode,
			Logger:        logger,
		})
	}

	if stdioMode {
		runStdioMode(logger, mcpServer)
		return
	}

	var authToken string
	if cfg.Auth.Enabled {
		authToken = cfg.Auth.Token
	}
	var mcpHandler http.Handler
	if mcpServer != nil {
		mcpHandler = sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{
				Stateless:      false,
				SessionTimeout: 30 * time.Minute,
			},
		)
	}

	router := transport.NewServer(transport.Services{
		Projects:     projectSvc,
		Reconciler:   reconcileSvc,
		Measurements: measurementSvc,
		Reports:      reportSvc,
		Analyzer:     be,
	}, transport.Options{
		AuthToken:      authToken,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		MCPHandler:     mcpHandler,
		Logger:         logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "store", cfg.Store.Driver, "blob", cfg.Blob.Driver, "mcp", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

// openStore opens the registry database for the configured driver and runs
// migrations. Both drivers expose the same repository interfaces.
func openStore(cfg config.StoreConfig) (repository.ProjectRepository, repository.MeasurementRepository, io.Closer, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.New(cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return postgres.NewProjectRepository(db), postgres.NewMeasurementRepository(db), db, nil
	default:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, nil, nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return sqlite.NewProjectRepository(db), sqlite.NewMeasurementRepository(db), db, nil
	}
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	stdio := &sdkmcp.StdioTransport{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled.
	if err := mcpServer.Run(ctx, stdio); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
