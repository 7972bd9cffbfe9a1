package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Backend BackendConfig `yaml:"backend"`
	Sync    SyncConfig    `yaml:"sync"`
	Blob    BlobConfig    `yaml:"blob"`
	Auth    AuthConfig    `yaml:"auth"`
	MCP     MCPConfig     `yaml:"mcp"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects the registry database. Path is used by the sqlite
// driver, DSN by postgres.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SyncConfig tunes the reconciler. OnFailure selects what happens to the
// local row when a create-and-sync can't reach the backend: keep or rollback.
type SyncConfig struct {
	Attempts          int    `yaml:"attempts"`
	BatchSize         int    `yaml:"batch_size"`
	BatchDelaySeconds int    `yaml:"batch_delay_seconds"`
	OnFailure         string `yaml:"on_failure"`
}

type BlobConfig struct {
	Driver string       `yaml:"driver"`
	Root   string       `yaml:"root"`
	S3     BlobS3Config `yaml:"s3"`
}

type BlobS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// MCPConfig controls the tool surface. In http mode it is mounted on the
// REST server at /mcp; stdio mode runs the process as a stdio tool server.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "canopy.db",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5000",
			TimeoutSeconds: 30,
		},
		Sync: SyncConfig{
			Attempts:          3,
			BatchSize:         3,
			BatchDelaySeconds: 1,
			OnFailure:         "keep",
		},
		Blob: BlobConfig{
			Driver: "fs",
			Root:   "canopy-reports",
		},
		MCP: MCPConfig{
			Enabled: true,
			Mode:    "http",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("CANOPY_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CANOPY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CANOPY_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CANOPY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("CANOPY_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if path := os.Getenv("CANOPY_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if dsn := os.Getenv("CANOPY_STORE_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if url := os.Getenv("CANOPY_BACKEND_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}
	if key := os.Getenv("CANOPY_BACKEND_API_KEY"); key != "" {
		cfg.Backend.APIKey = key
	}
	if timeoutStr := os.Getenv("CANOPY_BACKEND_TIMEOUT"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CANOPY_BACKEND_TIMEOUT: %w", err)
		}
		cfg.Backend.TimeoutSeconds = timeout
	}
	if attemptsStr := os.Getenv("CANOPY_SYNC_ATTEMPTS"); attemptsStr != "" {
		attempts, err := strconv.Atoi(attemptsStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CANOPY_SYNC_ATTEMPTS: %w", err)
		}
		cfg.Sync.Attempts = attempts
	}
	if sizeStr := os.Getenv("CANOPY_SYNC_BATCH_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CANOPY_SYNC_BATCH_SIZE: %w", err)
		}
		cfg.Sync.BatchSize = size
	}
	if onFailure := os.Getenv("CANOPY_SYNC_ON_FAILURE"); onFailure != "" {
		cfg.Sync.OnFailure = onFailure
	}
	if driver := os.Getenv("CANOPY_BLOB_DRIVER"); driver != "" {
		cfg.Blob.Driver = driver
	}
	if root := os.Getenv("CANOPY_BLOB_ROOT"); root != "" {
		cfg.Blob.Root = root
	}
	if bucket := os.Getenv("CANOPY_BLOB_S3_BUCKET"); bucket != "" {
		cfg.Blob.S3.Bucket = bucket
	}
	if region := os.Getenv("CANOPY_BLOB_S3_REGION"); region != "" {
		cfg.Blob.S3.Region = region
	}
	if endpoint := os.Getenv("CANOPY_BLOB_S3_ENDPOINT"); endpoint != "" {
		cfg.Blob.S3.Endpoint = endpoint
	}
	if pathStyle := os.Getenv("CANOPY_BLOB_S3_PATH_STYLE"); pathStyle != "" {
		cfg.Blob.S3.PathStyle = strings.EqualFold(pathStyle, "true")
	}
	if token := os.Getenv("CANOPY_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
		cfg.Auth.Enabled = true
	}
	if mode := os.Getenv("CANOPY_MCP_MODE"); mode != "" {
		cfg.MCP.Mode = mode
	}
	if enabled := os.Getenv("CANOPY_MCP_ENABLED"); enabled != "" {
		cfg.MCP.Enabled = strings.EqualFold(enabled, "true")
	}
	if level := os.Getenv("CANOPY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("store dsn required for postgres driver")
	}
	switch c.Sync.OnFailure {
	case "keep", "rollback":
	default:
		return fmt.Errorf("unknown sync on_failure policy %q", c.Sync.OnFailure)
	}
	switch c.MCP.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unknown mcp mode %q", c.MCP.Mode)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth token required when auth is enabled")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
