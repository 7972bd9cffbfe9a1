package reconcile

import "errors"

var (
	// ErrInvalidInput indicates invalid reconciler input.
	ErrInvalidInput = errors.New("invalid reconciler input")
)
