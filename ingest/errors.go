package ingest

import "errors"

var (
	// ErrRepositoryRequired indicates a nil document repository.
	ErrRepositoryRequired = errors.New("document repository is required")

	// ErrSourceRequired indicates a nil source.
	ErrSourceRequired = errors.New("source is required")
)
