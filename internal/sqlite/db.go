package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The embedded DDL keeps dev and test
// setups self-contained; production deployments run the same statements.
func (db *DB) RunMigrations() error {
	migration := `
-- Carbon-offset project registry
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    coordinates TEXT NOT NULL,
    carbon_tons REAL NOT NULL DEFAULT 0,
    price_per_ton REAL NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'USD',
    project_area REAL NOT NULL,
    forest_type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at);
CREATE INDEX IF NOT EXISTS idx_projects_forest_type ON projects(forest_type);

-- Append-only satellite measurement feed
CREATE TABLE IF NOT EXISTS carbon_data (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    measured_at TIMESTAMP NOT NULL,
    ndvi REAL NOT NULL CHECK(ndvi >= 0.0 AND ndvi <= 1.0),
    carbon_estimate REAL NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
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
