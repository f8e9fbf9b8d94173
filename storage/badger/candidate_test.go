package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slither() *core.Candidate {
	return &core.Candidate{
		Id:          "crytic/slither",
		DisplayName: "slither",
		Language:    "Python",
		Tags:        []string{"Solidity", "security", "analysis", "security"},
		Features:    map[string]float64{core.FeatureBaseQuality: 0.89, core.FeatureCoherence: 0.86},
	}
}

func TestNewCandidateRepository_NilBackend(t *testing.T) {
	_, err := NewCandidateRepository(nil)
	assert.Error(t, err)
}

func TestAddCandidates(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddCandidates(ctx, slither())
	require.NoError(t, err)
	require.Len(t, added, 1)

	assert.Equal(t, []string{"analysis", "security", "solidity"}, added[0].Tags)
	assert.False(t, added[0].InsertedAt.IsZero())
	assert.Equal(t, added[0].InsertedAt, added[0].UpdatedAt)

	got, err := repo.GetCandidate(ctx, "crytic/slither")
	require.NoError(t, err)
	assert.Equal(t, "slither", got.DisplayName)
	assert.Equal(t, 0.89, got.Feature(core.FeatureBaseQuality))
	assert.True(t, added[0].InsertedAt.Equal(got.InsertedAt))
}

func TestAddCandidates_Invalid(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx, &core.Candidate{Id: "x", DisplayName: "x", Features: map[string]float64{"q": 2}})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	assert.ErrorIs(t, err, core.ErrFeatureOutOfRange)

	_, err = repo.AddCandidates(ctx, slither(), &core.Candidate{DisplayName: "no id"})
	assert.ErrorIs(t, err, core.ErrEmptyID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a failed batch stores nothing")
}

func TestAddCandidates_ReplacesTagIndex(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx, slither())
	require.NoError(t, err)

	replacement := slither()
	replacement.Tags = []string{"python"}
	_, err = repo.AddCandidates(ctx, replacement)
	require.NoError(t, err)

	ids, err := repo.GetCandidatesByTag(ctx, "security")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.GetCandidatesByTag(ctx, "python")
	require.NoError(t, err)
	assert.Equal(t, []string{"crytic/slither"}, ids)
}

func TestUpdateCandidates(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	added, err := repo.AddCandidates(ctx, slither())
	require.NoError(t, err)
	insertedAt := added[0].InsertedAt

	time.Sleep(2 * time.Millisecond)
	update := slither()
	update.Description = "Static analyzer"
	update.Tags = []string{"audit"}
	updated, err := repo.UpdateCandidates(ctx, update)
	require.NoError(t, err)
	assert.True(t, insertedAt.Equal(updated[0].InsertedAt))
	assert.True(t, updated[0].UpdatedAt.After(insertedAt))

	got, err := repo.GetCandidate(ctx, "crytic/slither")
	require.NoError(t, err)
	assert.Equal(t, "Static analyzer", got.Description)

	ids, err := repo.GetCandidatesByTag(ctx, "security")
	require.NoError(t, err)
	assert.Empty(t, ids)
	ids, err = repo.GetCandidatesByTag(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, []string{"crytic/slither"}, ids)

	_, err = repo.UpdateCandidates(ctx, &core.Candidate{Id: "missing", DisplayName: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteCandidates(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx, slither())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCandidates(ctx, "crytic/slither"))

	_, err = repo.GetCandidate(ctx, "crytic/slither")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := repo.GetCandidatesByTag(ctx, "security")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, repo.DeleteCandidates(ctx, "crytic/slither"), storage.ErrNotFound)
}

func TestGetCandidates_SkipsMissing(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx, slither())
	require.NoError(t, err)

	got, err := repo.GetCandidates(ctx, "missing", "crytic/slither")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "crytic/slither", got[0].Id)
}

func TestGetCandidatesByTag(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.AddCandidates(ctx,
		&core.Candidate{Id: "b", DisplayName: "b", Tags: []string{"security", "go"}},
		&core.Candidate{Id: "a", DisplayName: "a", Tags: []string{"security"}},
		&core.Candidate{Id: "c", DisplayName: "c", Tags: []string{"securityx"}},
	)
	require.NoError(t, err)

	ids, err := repo.GetCandidatesByTag(ctx, " Security ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids, "prefix tags must not match")

	_, err = repo.GetCandidatesByTag(ctx, "  ")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestSnapshotAndCount(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	snapshot, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	_, err = repo.AddCandidates(ctx,
		&core.Candidate{Id: "zeta", DisplayName: "zeta", Tags: []string{"x"}},
		&core.Candidate{Id: "alpha", DisplayName: "alpha"},
	)
	require.NoError(t, err)

	snapshot, err = repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "alpha", snapshot[0].Id)
	assert.Equal(t, "zeta", snapshot[1].Id)

	// Snapshots are copies
	snapshot[0].DisplayName = "changed"
	again, err := repo.GetCandidate(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", again.DisplayName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "tag index entries are not counted")
}
