// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package indexing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankit/ai"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/storage"
)

// ReindexCheckpoint is the checkpoint name used by Reindex.
const ReindexCheckpoint = "reindex"

// Config holds batching and retry settings.
type Config struct {
	// BatchSize is the number of candidates embedded per embedder call
	BatchSize int

	// ReportInterval is how often to report progress (number of candidates)
	ReportInterval int

	// MaxAttempts is the number of embedder calls made per batch before giving up
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MaxRetryDelay caps the backoff delay
	MaxRetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:      32,
		ReportInterval: 32,
		MaxAttempts:    3,
		RetryDelay:     time.Second,
		MaxRetryDelay:  30 * time.Second,
	}
}

// Report summarizes an Import or Reindex run.
type Report struct {
	Stored   int
	Embedded int
	Skipped  int // Candidates already covered by a checkpoint
}

// Pipeline stores candidates and generates their embeddings.
type Pipeline struct {
	repo        storage.CandidateRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	pool        *ants.Pool
	poolSize    int
	config      Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithEmbedder enables embedding.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		p.embedder = embedder
		return nil
	}
}

// WithCheckpoints lets Reindex save and resume progress.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpoints = checkpoints
		return nil
	}
}

// WithConfig replaces the batching and retry settings.
func WithConfig(config Config) Option {
	return func(p *Pipeline) error {
		if config.BatchSize < 1 {
			return fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
		}
		if config.MaxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.config = config
		return nil
	}
}

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		p.poolSize = size
		return nil
	}
}

// WithProgress sets where progress is written. Default is no output.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline writing to repo.
func NewPipeline(repo storage.CandidateRepository, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:     repo,
		pool:     pool,
		poolSize: poolSize,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Import validates and stores candidates, then embeds those without a vector
// when an embedder is configured. Nothing is stored if any candidate is invalid.
// Embedding failures are returned after every batch has been attempted; the
// candidates themselves stay stored.
func (p *Pipeline) Import(ctx context.Context, candidates ...*core.Candidate) (*Report, error) {
	for i, c := range candidates {
		if err := core.ValidateCandidate(c); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	stored, err := p.repo.AddCandidates(ctx, candidates...)
	if err != nil {
		return nil, err
	}
	report := &Report{Stored: len(stored)}
	p.logger.Info("imported candidates", "count", report.Stored)

	if p.embedder == nil {
		return report, nil
	}

	pending := make([]*core.Candidate, 0, len(stored))
	for _, c := range stored {
		if len(c.Vector) == 0 {
			pending = append(pending, c)
		}
	}

	tracker := NewProgressTracker(p.progress, len(pending), p.config.ReportInterval)
	tracker.Start()
	embedded, err := p.embedBatches(ctx, batches(pending, p.config.BatchSize), tracker)
	report.Embedded = embedded
	if len(pending) > 0 {
		tracker.Finish()
	}
	return report, err
}

// Reindex re-embeds every stored candidate in id order. Progress is
// checkpointed after each window of concurrent batches; a later call resumes
// after the last checkpointed id. The checkpoint is cleared on success.
func (p *Pipeline) Reindex(ctx context.Context) (*Report, error) {
	if p.embedder == nil {
		return nil, ErrEmbedderRequired
	}

	all, err := p.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	checkpoint, err := p.loadCheckpoint(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	remaining := all
	if checkpoint != nil {
		for len(remaining) > 0 && remaining[0].Id <= checkpoint.LastID {
			remaining = remaining[1:]
		}
		report.Skipped = len(all) - len(remaining)
		p.logger.Info("resuming reindex", "after", checkpoint.LastID, "skipped", report.Skipped)
	} else {
		checkpoint = &core.Checkpoint{Name: ReindexCheckpoint}
	}

	fmt.Fprintf(p.progress, "Reindexing %d candidates (batch size: %d)\n", len(remaining), p.config.BatchSize)
	tracker := NewProgressTracker(p.progress, len(remaining), p.config.ReportInterval)
	tracker.Start()

	work := batches(remaining, p.config.BatchSize)
	for start := 0; start < len(work); start += p.poolSize {
		window := work[start:min(start+p.poolSize, len(work))]

		embedded, err := p.embedBatches(ctx, window, tracker)
		report.Embedded += embedded
		if err != nil {
			return report, err
		}

		last := window[len(window)-1]
		checkpoint.LastID = last[len(last)-1].Id
		checkpoint.Processed += embedded
		if err := p.saveCheckpoint(ctx, checkpoint); err != nil {
			return report, err
		}
	}

	tracker.Finish()
	if p.checkpoints != nil {
		if err := p.checkpoints.ClearCheckpoint(ctx, ReindexCheckpoint); err != nil {
			return report, fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	progress := tracker.Snapshot()
	p.logger.Info("reindex complete",
		"embedded", report.Embedded,
		"skipped", report.Skipped,
		"elapsed", progress.Elapsed.Round(time.Millisecond))
	return report, nil
}

// embedBatches embeds the batches concurrently and returns how many
// candidates were embedded and stored.
func (p *Pipeline) embedBatches(ctx context.Context, work [][]*core.Candidate, tracker *ProgressTracker) (int, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		embedded int
		errs     []error
	)

	for _, batch := range work {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			err := p.embedBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("error embedding batch", "first", batch[0].Id, "size", len(batch), "err", err)
				errs = append(errs, err)
				return
			}
			embedded += len(batch)
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	wg.Wait()

	return embedded, errors.Join(errs...)
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Candidate) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = EmbeddingText(c)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.config.MaxAttempts, p.config.RetryDelay, p.config.MaxRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.config.MaxAttempts, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(batch), len(vectors))
	}

	for i, c := range batch {
		c.Vector = NormalizeVector(vectors[i])
	}
	if _, err := p.repo.UpdateCandidates(ctx, batch...); err != nil {
		return fmt.Errorf("failed to update candidates: %w", err)
	}
	return nil
}

func (p *Pipeline) loadCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	if p.checkpoints == nil {
		return nil, nil
	}
	checkpoint, err := p.checkpoints.LoadCheckpoint(ctx, ReindexCheckpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return checkpoint, nil
}

func (p *Pipeline) saveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if p.checkpoints == nil {
		return nil
	}
	if err := p.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// EmbeddingText is the text embedded for a candidate: its name, description and tags.
func EmbeddingText(c *core.Candidate) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{c.DisplayName, c.Description, strings.Join(c.Tags, " ")} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}

func batches(candidates []*core.Candidate, size int) [][]*core.Candidate {
	var out [][]*core.Candidate
	for i := 0; i < len(candidates); i += size {
		out = append(out, candidates[i:min(i+size, len(candidates))])
	}
	return out
}
