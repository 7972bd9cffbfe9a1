// Package blob stores archived report documents. Three drivers share one
// interface: local filesystem for single-node deployments, S3-compatible
// object storage for production, and an in-memory store for tests.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a blob store implementation
type Driver string

const (
	DriverFS     Driver = "fs"
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

var (
	// ErrNotFound indicates the key has no stored blob
	ErrNotFound = errors.New("blob not found")

	// ErrExists indicates a blob is already stored under the key. Writes are
	// create-only; archived reports are never overwritten.
	ErrExists = errors.New("blob already exists")

	// ErrInvalidKey indicates an empty, absolute, or traversing key
	ErrInvalidKey = errors.New("invalid blob key")
)

// Info describes a stored blob
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// PutOptions carries optional attributes for a write
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is the blob storage contract. Keys use forward slashes; prefixes
// group related blobs (e.g. all reports for one project).
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and configures a driver
type Config struct {
	Driver Driver
	Root   string // fs: directory for blob data
	S3     S3Config
}

// S3Config configures the s3 driver. Endpoint and PathStyle support
// S3-compatible services such as MinIO.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Open constructs the store named by cfg.Driver. An empty driver defaults
// to the filesystem store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFS, "":
		return NewFSStore(cfg.Root)
	case DriverS3:
		return NewS3Store(ctx, cfg.S3)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
