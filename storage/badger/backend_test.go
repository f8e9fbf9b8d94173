package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (storage.CandidateRepository, *Backend) {
	t.Helper()
	repo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo, backend
}

func vectorCandidate(id string, vector []float32) *core.Candidate {
	return &core.Candidate{Id: id, DisplayName: id, Vector: vector}
}

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_FilePath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	assert.NoError(t, backend.Close(), "second close is a no-op")

	_, err = backend.FindSimilar(context.Background(), []float32{1}, 0, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoCandidates(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_WithCandidates(t *testing.T) {
	repo, backend := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx,
		vectorCandidate("first", []float32{1.0, 0.0, 0.0}),  // Very similar to query
		vectorCandidate("second", []float32{0.9, 0.1, 0.0}), // Somewhat similar
		vectorCandidate("third", []float32{0.0, 0.0, 1.0}),  // Not similar
		vectorCandidate("fourth", nil),                      // No vector - skipped
	)
	require.NoError(t, err)

	results, err := backend.FindSimilar(ctx, []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
	assert.Equal(t, "first", results[0].Candidate.Id)
	assert.Greater(t, results[0].Score, float32(0.8))
}

func TestFindSimilar_ThresholdFiltering(t *testing.T) {
	repo, backend := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx,
		vectorCandidate("high", []float32{1.0, 0.0, 0.0}),
		vectorCandidate("medium", []float32{0.7, 0.3, 0.0}),
		vectorCandidate("low", []float32{0.3, 0.7, 0.0}),
	)
	require.NoError(t, err)

	queryVector := []float32{1.0, 0.0, 0.0}

	t.Run("high threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, queryVector, 0.95, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("medium threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, queryVector, 0.6, 10)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("low threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, queryVector, 0.2, 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestFindSimilar_LimitResults(t *testing.T) {
	repo, backend := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		_, err := repo.AddCandidates(ctx, vectorCandidate(id, []float32{0.9, 0.1, 0.0}))
		require.NoError(t, err)
	}

	queryVector := []float32{1.0, 0.0, 0.0}

	t.Run("limit to 3", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, queryVector, 0.5, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		// equal scores are ordered by id
		assert.Equal(t, "a", results[0].Candidate.Id)
		assert.Equal(t, "c", results[2].Candidate.Id)
	})

	t.Run("limit higher than results", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, queryVector, 0.5, 100)
		require.NoError(t, err)
		assert.Len(t, results, 10)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := backend.FindSimilar(ctx, queryVector, 0.5, 0)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "general case",
			a:        []float32{0.6, 0.8},
			b:        []float32{0.8, 0.6},
			expected: 0.96,
		},
		{
			name:     "different lengths - use min",
			a:        []float32{1.0, 2.0, 3.0},
			b:        []float32{1.0, 2.0},
			expected: 5.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		testErr := assert.AnError
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return testErr
		})
		assert.Equal(t, testErr, err)
	})
}
