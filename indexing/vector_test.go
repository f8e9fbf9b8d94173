package indexing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{name: "unit vector remains unchanged", input: []float32{1, 0, 0}, expected: []float32{1, 0, 0}},
		{name: "scale non-unit vector", input: []float32{3, 4}, expected: []float32{0.6, 0.8}},
		{name: "negative values", input: []float32{-1, 1}, expected: []float32{-1 / float32(math.Sqrt2), 1 / float32(math.Sqrt2)}},
		{name: "zero vector", input: []float32{0, 0}, expected: []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Len(t, result, len(tt.expected))
			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
			}
		})
	}
}

func TestNormalizeVector_DoesNotModifyInput(t *testing.T) {
	input := []float32{3, 4}
	NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)

	assert.Empty(t, NormalizeVector(nil))
}
