// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder returns deterministic unit vectors derived from a hash of the
// text, so tests can exercise semantic ranking without an embedding service.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//	count := embedder.CallCount()
package mock
