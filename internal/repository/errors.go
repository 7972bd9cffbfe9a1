package repository

import "github.com/verdantio/canopy/internal/repository/repoerr"

// The sentinel values live in the leaf package repoerr so domain packages can
// reference them without importing this package (whose interfaces reference
// domain types). They are re-exported here unchanged: both names refer to the
// same error values, so errors.Is comparisons are interchangeable.
var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = repoerr.ErrNotFound

	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = repoerr.ErrDuplicate

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = repoerr.ErrForeignKeyViolation

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = repoerr.ErrInvalidInput
)
