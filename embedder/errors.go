package embedder

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRunRepositoryRequired indicates a nil run repository.
	ErrRunRepositoryRequired = errors.New("run repository is required")

	// ErrEmbedderRequired indicates a nil embedding collaborator.
	ErrEmbedderRequired = errors.New("embedder is required")
)
