package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	a := Vector("slither", 16)
	b := Vector("slither", 16)
	c := Vector("mythril", 16)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	require.Len(t, a, 16)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	v, err := m.EmbedText(ctx, "text")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimension)

	vs, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, Vector("a", DefaultDimension), vs[0])
	assert.Equal(t, 2, m.CallCount())

	m.Dimension = 3
	v, err = m.EmbedText(ctx, "text")
	require.NoError(t, err)
	assert.Len(t, v, 3)

	boom := errors.New("boom")
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}
	_, err = m.EmbedText(ctx, "text")
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedText(ctx, "text")
	assert.NoError(t, err)
}

func TestMockEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockEmbedder().EmbedTexts(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
