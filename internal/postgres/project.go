package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for PostgreSQL
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, name, coordinates, carbon_tons, price_per_ton, currency, project_area, forest_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Coordinates,
		proj.CarbonTons,
		proj.PricePerTon,
		proj.Currency,
		proj.ProjectArea,
		proj.ForestType,
		proj.Description,
		proj.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, name, coordinates, carbon_tons, price_per_ton, currency, project_area, forest_type, description, created_at
		FROM projects
		WHERE id = $1
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Name,
		&proj.Coordinates,
		&proj.CarbonTons,
		&proj.PricePerTon,
		&proj.Currency,
		&proj.ProjectArea,
		&proj.ForestType,
		&proj.Description,
		&proj.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}

// List returns all projects, newest first
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	query := `
		SELECT id, name, coordinates, carbon_tons, price_per_ton, currency, project_area, forest_type, description, created_at
		FROM projects
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var proj project.Project
		err := rows.Scan(
			&proj.ID,
			&proj.Name,
			&proj.Coordinates,
			&proj.CarbonTons,
			&proj.PricePerTon,
			&proj.Currency,
			&proj.ProjectArea,
			&proj.ForestType,
			&proj.Description,
			&proj.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// ListIDs returns every project ID
func (r *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project id rows: %w", err)
	}

	return ids, nil
}

// Update overwrites a project's mutable fields
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	query := `
		UPDATE projects
		SET name = $1, coordinates = $2, carbon_tons = $3, price_per_ton = $4, currency = $5, project_area = $6, forest_type = $7, description = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Name,
		proj.Coordinates,
		proj.CarbonTons,
		proj.PricePerTon,
		proj.Currency,
		proj.ProjectArea,
		proj.ForestType,
		proj.Description,
		proj.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a project; carbon_data rows cascade via foreign key
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
