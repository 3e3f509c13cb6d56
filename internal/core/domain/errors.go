package domain

import "errors"

// Domain errors shared across the pipeline.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates the harvester configuration is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)
