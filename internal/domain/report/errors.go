package report

import "errors"

var (
	// ErrProjectNotFound indicates the referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrEmptyReport indicates the backend returned a zero-byte document.
	ErrEmptyReport = errors.New("report is empty")
)
