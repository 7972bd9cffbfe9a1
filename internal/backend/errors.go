package backend

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrNotFound is returned when the backend has no copy of the project.
	ErrNotFound = errors.New("backend: project not found")
	// ErrConflict is returned when the backend already holds the project.
	ErrConflict = errors.New("backend: project already exists")
)

// APIError is a non-2xx backend response outside the mapped sentinels.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsRetryable classifies an error from this client for retry policies:
// 5xx and 429 responses, timeouts and transport-level failures are worth
// another attempt; everything else (including 4xx rejections) is permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
