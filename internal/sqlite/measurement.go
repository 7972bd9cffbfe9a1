package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/repository"
)

// MeasurementRepository implements repository.MeasurementRepository for SQLite
type MeasurementRepository struct {
	db *DB
}

// NewMeasurementRepository creates a new MeasurementRepository
func NewMeasurementRepository(db *DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Create inserts a new measurement
func (r *MeasurementRepository) Create(ctx context.Context, m *measurement.Measurement) error {
	query := `
		INSERT INTO carbon_data (id, project_id, measured_at, ndvi, carbon_estimate, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ProjectID,
		m.MeasuredAt,
		m.NDVI,
		m.CarbonEstimate,
		m.Notes,
		m.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isCheckViolation(err) {
			return repository.ErrInvalidInput
		}
		return fmt.Errorf("failed to create measurement: %w", err)
	}

	return nil
}

// ListByProject returns a project's measurements, newest first
func (r *MeasurementRepository) ListByProject(ctx context.Context, projectID string) ([]measurement.Measurement, error) {
	query := `
		SELECT id, project_id, measured_at, ndvi, carbon_estimate, notes, created_at
		FROM carbon_data
		WHERE project_id = ?
		ORDER BY measured_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var measurements []measurement.Measurement
	for rows.Next() {
		var m measurement.Measurement
		err := rows.Scan(
			&m.ID,
			&m.ProjectID,
			&m.MeasuredAt,
			&m.NDVI,
			&m.CarbonEstimate,
			&m.Notes,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurement rows: %w", err)
	}

	return measurements, nil
}

// Latest returns the most recent measurement for a project
func (r *MeasurementRepository) Latest(ctx context.Context, projectID string) (*measurement.Measurement, error) {
	query := `
		SELECT id, project_id, measured_at, ndvi, carbon_estimate, notes, created_at
		FROM carbon_data
		WHERE project_id = ?
		ORDER BY measured_at DESC, id
		LIMIT 1
	`

	var m measurement.Measurement
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&m.ID,
		&m.ProjectID,
		&m.MeasuredAt,
		&m.NDVI,
		&m.CarbonEstimate,
		&m.Notes,
		&m.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest measurement: %w", err)
	}

	return &m, nil
}
