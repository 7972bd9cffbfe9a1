package mcp

import (
	"errors"
	"fmt"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
)

// APIError is the structured error surfaced to agents. The code is stable
// and machine-checkable; the recovery hint tells the agent what to do next.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to stable MCP error codes. Unmapped errors
// return nil and pass through unchanged.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound) || errors.Is(err, measurement.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "List projects to find a valid ID"}
	case errors.Is(err, project.ErrProjectExists):
		return &APIError{Code: "PROJECT_EXISTS", Message: "project already exists", RecoveryHint: "Omit the id to have one generated"}
	case errors.Is(err, measurement.ErrMeasurementNotFound):
		return &APIError{Code: "MEASUREMENT_NOT_FOUND", Message: "no measurements recorded for this project", RecoveryHint: "Add a measurement first"}
	case errors.Is(err, project.ErrInvalidInput) || errors.Is(err, measurement.ErrInvalidInput) || errors.Is(err, reconcile.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Fix the argument and retry"}
	case errors.Is(err, backend.ErrNotFound):
		return &APIError{Code: "BACKEND_NOT_FOUND", Message: "project not found in analysis backend", RecoveryHint: "Run sync_project to push it"}
	default:
		return nil
	}
}

// toolError rewrites a domain error into its structured form when one
// applies, so the agent sees the code and hint in the failure text.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
