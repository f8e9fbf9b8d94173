package storage

import (
	"context"

	"github.com/poiesic/rankit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds candidates whose vectors are similar to the given vector.
	// Returns candidates with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first), ties by id.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// CandidateRepository provides operations for managing the candidate corpus.
type CandidateRepository interface {
	Repository

	// AddCandidates stores one or more candidates, replacing any with the same id.
	// Tags are normalized and InsertedAt is set if not already set.
	// Returns ErrInvalidQuery wrapping the validation error for invalid candidates.
	AddCandidates(ctx context.Context, candidates ...*core.Candidate) ([]*core.Candidate, error)

	// UpdateCandidates updates existing candidates.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any candidate doesn't exist.
	UpdateCandidates(ctx context.Context, candidates ...*core.Candidate) ([]*core.Candidate, error)

	// DeleteCandidates removes candidates by id, along with their tag index entries.
	// Returns ErrNotFound if any candidate doesn't exist.
	DeleteCandidates(ctx context.Context, ids ...string) error

	// GetCandidate retrieves a single candidate by id.
	// Returns ErrNotFound if the candidate doesn't exist.
	GetCandidate(ctx context.Context, id string) (*core.Candidate, error)

	// GetCandidates retrieves multiple candidates by id.
	// Returns only the candidates that exist (no error for missing ids).
	GetCandidates(ctx context.Context, ids ...string) ([]*core.Candidate, error)

	// GetCandidatesByTag retrieves the ids of candidates carrying tag, in id order.
	GetCandidatesByTag(ctx context.Context, tag string) ([]string, error)

	// Snapshot returns every candidate in id order. The returned candidates
	// are fresh copies owned by the caller.
	Snapshot(ctx context.Context) ([]*core.Candidate, error)

	// Count returns the number of stored candidates.
	Count(ctx context.Context) (int, error)
}

// CheckpointRepository persists progress markers for catalog jobs.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint under its name.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the named checkpoint, or nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the named checkpoint. Missing checkpoints are not an error.
	ClearCheckpoint(ctx context.Context, name string) error
}
