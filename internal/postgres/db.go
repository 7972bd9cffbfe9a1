// Package postgres provides a PostgreSQL-backed implementation of the
// repository interfaces. It mirrors the sqlite package so the two stores are
// interchangeable behind the store driver setting.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	*sql.DB
}

// New opens a connection pool and verifies connectivity
func New(dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. Same tables as the sqlite store, with
// native PostgreSQL types.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    coordinates TEXT NOT NULL,
    carbon_tons DOUBLE PRECISION NOT NULL DEFAULT 0,
    price_per_ton DOUBLE PRECISION NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'USD',
    project_area DOUBLE PRECISION NOT NULL,
    forest_type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at);
CREATE INDEX IF NOT EXISTS idx_projects_forest_type ON projects(forest_type);

CREATE TABLE IF NOT EXISTS carbon_data (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    measured_at TIMESTAMPTZ NOT NULL,
    ndvi DOUBLE PRECISION NOT NULL CHECK (ndvi >= 0.0 AND ndvi <= 1.0),
    carbon_estimate DOUBLE PRECISION NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_carbon_data_project ON carbon_data(project_id);
CREATE INDEX IF NOT EXISTS idx_carbon_data_measured ON carbon_data(measured_at);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
