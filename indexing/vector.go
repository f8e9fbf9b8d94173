package indexing

import "math"

// NormalizeVector returns v scaled to unit length so that a dot product
// between stored vectors is their cosine similarity. A zero vector yields a
// zero vector of the same length. The input is not modified.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	result := make([]float32, len(v))
	if sum == 0 {
		return result
	}
	magnitude := math.Sqrt(sum)
	for i, x := range v {
		result[i] = float32(float64(x) / magnitude)
	}
	return result
}
