package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist in the registry.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectExists indicates an ID collision on create.
	ErrProjectExists = errors.New("project already exists")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
