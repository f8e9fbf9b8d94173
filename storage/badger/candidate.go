package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/storage"
)

// CandidateRepository implements storage.CandidateRepository for BadgerDB.
type CandidateRepository struct {
	backend *Backend
}

var _ storage.CandidateRepository = (*CandidateRepository)(nil)

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(backend *Backend) (storage.CandidateRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend required")
	}
	return &CandidateRepository{
		backend: backend,
	}, nil
}

// Close releases resources. CandidateRepository has no resources to release;
// the backend is closed by its owner.
func (r *CandidateRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *CandidateRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *CandidateRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCandidates stores one or more candidates, replacing any with the same id.
func (r *CandidateRepository) AddCandidates(ctx context.Context, candidates ...*core.Candidate) ([]*core.Candidate, error) {
	for _, candidate := range candidates {
		if err := core.ValidateCandidate(candidate); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, candidate := range candidates {
			key := makeCandidateKey(candidate.Id)

			// Drop index entries of a candidate being replaced
			old, err := readCandidate(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := deleteTagIndex(tx, old); err != nil {
					return err
				}
			}

			candidate.Tags = core.NormalizeTags(candidate.Tags)
			if candidate.InsertedAt.IsZero() {
				candidate.InsertedAt = now
			}
			candidate.UpdatedAt = now

			if err := writeCandidate(tx, candidate); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

// UpdateCandidates updates existing candidates.
func (r *CandidateRepository) UpdateCandidates(ctx context.Context, candidates ...*core.Candidate) ([]*core.Candidate, error) {
	for _, candidate := range candidates {
		if err := core.ValidateCandidate(candidate); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, candidate := range candidates {
			key := makeCandidateKey(candidate.Id)

			old, err := readCandidate(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, candidate.Id)
			}
			if err := deleteTagIndex(tx, old); err != nil {
				return err
			}

			candidate.Tags = core.NormalizeTags(candidate.Tags)
			candidate.InsertedAt = old.InsertedAt
			candidate.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

			if err := writeCandidate(tx, candidate); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

// DeleteCandidates removes candidates by id.
func (r *CandidateRepository) DeleteCandidates(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCandidateKey(id)

			candidate, err := readCandidate(tx, key)
			if err != nil {
				return err
			}
			if candidate == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
			}

			if err := deleteTagIndex(tx, candidate); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetCandidate retrieves a single candidate by id.
func (r *CandidateRepository) GetCandidate(ctx context.Context, id string) (*core.Candidate, error) {
	var result *core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCandidate(tx, makeCandidateKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetCandidates retrieves multiple candidates by id.
func (r *CandidateRepository) GetCandidates(ctx context.Context, ids ...string) ([]*core.Candidate, error) {
	var result []*core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			candidate, err := readCandidate(tx, makeCandidateKey(id))
			if err != nil {
				return err
			}
			if candidate != nil {
				result = append(result, candidate)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetCandidatesByTag retrieves the ids of candidates carrying tag.
func (r *CandidateRepository) GetCandidatesByTag(ctx context.Context, tag string) ([]string, error) {
	normalized := core.NormalizeTags([]string{tag})
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: empty tag", storage.ErrInvalidQuery)
	}
	prefix := makePartialCandidateTagKey(normalized[0])

	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	}, false)
	return ids, err
}

// Snapshot returns every stored candidate in id order.
func (r *CandidateRepository) Snapshot(ctx context.Context) ([]*core.Candidate, error) {
	var results []*core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(candidatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			candidate, err := readItem(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, candidate)
		}
		return nil
	}, false)
	return results, err
}

// Count returns the number of stored candidates.
func (r *CandidateRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(candidatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

func writeCandidate(tx *badger.Txn, candidate *core.Candidate) error {
	if err := tx.Set(makeCandidateKey(candidate.Id), storage.MarshalCandidate(candidate)); err != nil {
		return err
	}
	for _, tag := range candidate.Tags {
		if err := tx.Set(makeCandidateTagKey(tag, candidate.Id), nil); err != nil {
			return err
		}
	}
	return nil
}

func deleteTagIndex(tx *badger.Txn, candidate *core.Candidate) error {
	for _, tag := range candidate.Tags {
		if err := tx.Delete(makeCandidateTagKey(tag, candidate.Id)); err != nil {
			return err
		}
	}
	return nil
}

// readCandidate reads a candidate from the transaction.
// Returns nil, nil when the key doesn't exist.
func readCandidate(tx *badger.Txn, key []byte) (*core.Candidate, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return readItem(item)
}

func readItem(item *badger.Item) (*core.Candidate, error) {
	var candidate *core.Candidate
	err := item.Value(func(val []byte) error {
		var err error
		candidate, err = storage.UnmarshalCandidate(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateIDFromKey(item.Key()), err)
	}
	return candidate, nil
}
