package indexing

import "errors"

var (
	// ErrRepositoryRequired is returned when a candidate repository is not provided.
	ErrRepositoryRequired = errors.New("candidate repository required")

	// ErrEmbedderRequired is returned by Reindex when no embedder is configured.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when an embedder returns the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
