package measurement

import "errors"

var (
	// ErrMeasurementNotFound indicates no measurement matched.
	ErrMeasurementNotFound = errors.New("measurement not found")
	// ErrProjectNotFound indicates the referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid measurement input.
	ErrInvalidInput = errors.New("invalid measurement input")
)
