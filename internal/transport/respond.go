package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/verdantio/canopy/internal/backend"
	"github.com/verdantio/canopy/internal/blob"
	"github.com/verdantio/canopy/internal/domain/measurement"
	"github.com/verdantio/canopy/internal/domain/project"
	"github.com/verdantio/canopy/internal/domain/reconcile"
	"github.com/verdantio/canopy/internal/domain/report"
)

// errorBody is the uniform error envelope for every non-2xx JSON response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeDomainError maps service errors onto HTTP statuses: invalid input to
// 400, missing resources to 404, collisions to 409, backend trouble to 502.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, measurement.ErrInvalidInput),
		errors.Is(err, reconcile.ErrInvalidInput),
		errors.Is(err, blob.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, measurement.ErrProjectNotFound),
		errors.Is(err, measurement.ErrMeasurementNotFound),
		errors.Is(err, report.ErrProjectNotFound),
		errors.Is(err, backend.ErrNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrProjectExists),
		errors.Is(err, backend.ErrConflict),
		errors.Is(err, blob.ErrExists):
		return http.StatusConflict
	case errors.Is(err, report.ErrEmptyReport):
		return http.StatusBadGateway
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeProxyError is for handlers that front the analysis backend directly:
// anything that isn't a mapped domain condition is an upstream fault.
func writeProxyError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	writeError(w, status, err.Error())
}

func decodeJSON(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
