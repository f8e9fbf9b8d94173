package badger

import (
	"context"
	"testing"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	_, checkpoints, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	missing, err := checkpoints.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, missing)

	checkpoint := &core.Checkpoint{Name: "reindex", LastID: "crytic/slither", Processed: 4}
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, checkpoint))
	assert.False(t, checkpoint.UpdatedAt.IsZero())

	loaded, err := checkpoints.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Equal(t, checkpoint, loaded)

	checkpoint.LastID = "ethereum/go-ethereum"
	checkpoint.Processed = 5
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, checkpoint))
	loaded, err = checkpoints.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Equal(t, "ethereum/go-ethereum", loaded.LastID)
	assert.Equal(t, 5, loaded.Processed)

	other, err := checkpoints.LoadCheckpoint(ctx, "import")
	require.NoError(t, err)
	assert.Nil(t, other, "checkpoints are kept per job")

	require.NoError(t, checkpoints.ClearCheckpoint(ctx, "reindex"))
	require.NoError(t, checkpoints.ClearCheckpoint(ctx, "reindex"))
	loaded, err = checkpoints.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, checkpoints.ClearCheckpoint(ctx, "never-saved"))
}

func TestCheckpointRepository_Invalid(t *testing.T) {
	_, checkpoints, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	assert.ErrorIs(t, checkpoints.SaveCheckpoint(ctx, nil), storage.ErrInvalidQuery)
	assert.ErrorIs(t, checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: " "}), storage.ErrInvalidQuery)
	assert.ErrorIs(t, checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: "x", Processed: -1}), storage.ErrInvalidQuery)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, checkpoints.SaveCheckpoint(canceled, &core.Checkpoint{Name: "x"}), context.Canceled)
	_, err = checkpoints.LoadCheckpoint(canceled, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, checkpoints.ClearCheckpoint(canceled, "x"), context.Canceled)
}
