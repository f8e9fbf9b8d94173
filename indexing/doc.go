// Package indexing loads candidates into the store and keeps their
// embeddings current.
//
// Import stores a batch of candidates and, when an embedder is configured,
// embeds the ones that have no vector yet. Reindex re-embeds the whole store
// in batches, saving a checkpoint after each window of batches so an
// interrupted run resumes where it stopped.
package indexing
