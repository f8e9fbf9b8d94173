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


// Package rankit scores and ranks candidates for free-text queries.
//
// Engine is the entry point: it owns the candidate store and answers queries
// through a search.Searcher. The subpackages can also be used on their own.
package rankit

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/rankit/ai"
	"github.com/poiesic/rankit/ai/openai"
	"github.com/poiesic/rankit/catalog"
	"github.com/poiesic/rankit/config"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/indexing"
	"github.com/poiesic/rankit/metrics"
	"github.com/poiesic/rankit/ranking"
	"github.com/poiesic/rankit/report"
	"github.com/poiesic/rankit/scoring"
	"github.com/poiesic/rankit/search"
	"github.com/poiesic/rankit/source"
	"github.com/poiesic/rankit/source/files"
	"github.com/poiesic/rankit/source/searxng"
	"github.com/poiesic/rankit/storage"
	"github.com/poiesic/rankit/storage/badger"
)

// Engine ties the candidate store, the optional embedder and search backend,
// the ranker and the searcher together.
type Engine struct {
	cfg         *config.Config
	backend     *badger.Backend
	repo        storage.CandidateRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	source      source.Source
	profile     scoring.Profile
	searcher    *search.Searcher
	monitor     *metrics.Monitor
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	embedder ai.Embedder
	source   source.Source
	logger   *slog.Logger
}

// WithEmbedder uses embedder instead of the one described by the configuration.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithSource uses src as the external search backend instead of the
// configured SearXNG instance.
func WithSource(src source.Source) Option {
	return func(o *engineOptions) {
		o.source = src
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the candidate store described by cfg and builds the search
// stack on top of it. A nil cfg uses config.Default(). When catalog seeding is
// enabled an empty store is filled from the configured catalog.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	profile, err := scoring.ProfileByName(cfg.Ranking.Profile)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		embedder: options.embedder,
		source:   options.source,
		profile:  profile,
		monitor:  metrics.NewMonitor(),
		logger:   options.logger,
	}

	if e.embedder == nil && cfg.Embedding.Host != "" {
		e.embedder, err = openai.NewEmbedder(ai.NewConfig(
			ai.WithEmbeddingHost(cfg.Embedding.Host),
			ai.WithEmbeddingModel(cfg.Embedding.Model),
			ai.WithToken(cfg.Embedding.Token),
		))
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	if e.source == nil && cfg.SearXNG.URL != "" {
		e.source, err = newSearXNG(cfg.SearXNG, e.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create searxng client: %w", err)
		}
	}

	e.backend, err = badger.OpenBackend(cfg.Database.Path, cfg.Database.Path == "")
	if err != nil {
		return nil, err
	}
	e.repo, err = badger.NewCandidateRepository(e.backend)
	if err != nil {
		e.backend.Close()
		return nil, err
	}
	e.checkpoints = badger.NewCheckpointRepository(e.backend)

	if cfg.Catalog.Seed {
		if err := e.seedIfEmpty(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.searcher, err = e.newSearcher()
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newSearXNG(cfg config.SearXNGConfig, logger *slog.Logger) (*searxng.Client, error) {
	opts := []searxng.Option{
		searxng.WithTimeout(cfg.Timeout),
		searxng.WithLogger(logger),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, searxng.WithRateLimit(cfg.RateLimit, max(int(cfg.RateLimit), 1)))
	}
	if cfg.Categories != "" {
		opts = append(opts, searxng.WithCategories(cfg.Categories))
	}
	if cfg.Language != "" {
		opts = append(opts, searxng.WithLanguage(cfg.Language))
	}
	return searxng.NewClient(cfg.URL, opts...)
}

func (e *Engine) seedIfEmpty(ctx context.Context) error {
	count, err := e.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	candidates := catalog.Default()
	if e.cfg.Catalog.Path != "" {
		candidates, err = catalog.LoadFile(e.cfg.Catalog.Path)
		if err != nil {
			return err
		}
	}

	result, err := e.Seed(ctx, candidates...)
	if err != nil {
		if result == nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		// Candidates are stored; they can be embedded later with Reindex
		e.logger.Warn("seeded catalog without embeddings", "err", err)
	}
	return nil
}

func (e *Engine) newSearcher() (*search.Searcher, error) {
	catalogProvider, err := search.NewCatalogProvider(e.repo)
	if err != nil {
		return nil, err
	}
	providers := []search.Provider{catalogProvider}

	if e.embedder != nil {
		semantic, err := search.NewSemanticProvider(e.repo, e.embedder,
			float32(e.cfg.Search.MinSimilarity), e.cfg.Search.SemanticLimit)
		if err != nil {
			return nil, err
		}
		providers = append(providers, semantic)
	}
	if e.source != nil {
		external, err := search.NewSourceProvider("searxng", e.source,
			search.WithSourceTimeout(e.cfg.SearXNG.Timeout),
			search.WithSourceLogger(e.logger))
		if err != nil {
			return nil, err
		}
		providers = append(providers, external)
	}
	if len(e.cfg.Files.Paths) > 0 {
		analyzer, err := files.NewAnalyzer(
			files.WithMaxFiles(e.cfg.Files.MaxFiles),
			files.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		local, err := files.NewProvider(analyzer, e.cfg.Files.Paths...)
		if err != nil {
			return nil, err
		}
		providers = append(providers, local)
	}

	rankerOpts := []ranking.Option{ranking.WithProfile(e.profile), ranking.WithLogger(e.logger)}
	if e.cfg.Ranking.HighThreshold != nil || e.cfg.Ranking.LowThreshold != nil {
		thresholds := ranking.Config{
			HighThreshold: e.profile.HighThreshold,
			LowThreshold:  e.profile.LowThreshold,
			MaxComplexity: e.profile.MaxComplexity,
		}
		if v := e.cfg.Ranking.HighThreshold; v != nil {
			thresholds.HighThreshold = *v
		}
		if v := e.cfg.Ranking.LowThreshold; v != nil {
			thresholds.LowThreshold = *v
		}
		rankerOpts = append(rankerOpts, ranking.WithConfig(thresholds))
	}
	ranker, err := ranking.NewRanker(rankerOpts...)
	if err != nil {
		return nil, err
	}

	searchOpts := []search.Option{search.WithLogger(e.logger)}
	if e.cfg.Search.PoolSize > 0 {
		searchOpts = append(searchOpts, search.WithPoolSize(e.cfg.Search.PoolSize))
	}
	if e.cfg.Search.Layers {
		searchOpts = append(searchOpts, search.WithLayers(search.DefaultLayers()...))
	}
	return search.NewSearcher(ranker, providers, searchOpts...)
}

// Close releases the searcher and closes the store.
func (e *Engine) Close() error {
	if e.searcher != nil {
		e.searcher.Release()
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Profile returns the scoring profile in use.
func (e *Engine) Profile() scoring.Profile {
	return e.profile
}

// Repository returns the candidate store.
func (e *Engine) Repository() storage.CandidateRepository {
	return e.repo
}

// Metrics returns the monitor that records every search.
func (e *Engine) Metrics() *metrics.Monitor {
	return e.monitor
}

// Rank searches and ranks candidates for query. A limit below 1 uses the
// configured default limit.
func (e *Engine) Rank(ctx context.Context, query core.Query) (*search.Response, error) {
	if query.Limit < 1 {
		query.Limit = e.cfg.Ranking.Limit
	}
	return e.searcher.SearchWithMonitor(ctx, query, e.monitor)
}

// Seed validates, stores and, when an embedder is configured, embeds candidates.
func (e *Engine) Seed(ctx context.Context, candidates ...*core.Candidate) (*indexing.Report, error) {
	pipeline, err := e.newPipeline(nil)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()
	return pipeline.Import(ctx, candidates...)
}

// Reindex re-embeds the whole store, writing progress to w.
func (e *Engine) Reindex(ctx context.Context, w io.Writer) (*indexing.Report, error) {
	if e.embedder == nil {
		return nil, indexing.ErrEmbedderRequired
	}
	pipeline, err := e.newPipeline(w)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()
	return pipeline.Reindex(ctx)
}

func (e *Engine) newPipeline(w io.Writer) (*indexing.Pipeline, error) {
	indexCfg := indexing.DefaultConfig()
	indexCfg.BatchSize = e.cfg.Indexing.BatchSize
	indexCfg.MaxAttempts = e.cfg.Indexing.MaxAttempts
	if e.cfg.Indexing.RetryDelay > 0 {
		indexCfg.RetryDelay = e.cfg.Indexing.RetryDelay
	}

	opts := []indexing.Option{
		indexing.WithCheckpoints(e.checkpoints),
		indexing.WithConfig(indexCfg),
		indexing.WithProgress(w),
		indexing.WithLogger(e.logger),
	}
	if e.embedder != nil {
		opts = append(opts, indexing.WithEmbedder(e.embedder))
	}
	if e.cfg.Indexing.PoolSize > 0 {
		opts = append(opts, indexing.WithPoolSize(e.cfg.Indexing.PoolSize))
	}
	return indexing.NewPipeline(e.repo, opts...)
}

// Status summarizes the stored catalog.
func (e *Engine) Status(ctx context.Context) (report.Status, error) {
	candidates, err := e.repo.Snapshot(ctx)
	if err != nil {
		return report.Status{}, err
	}
	return report.CatalogStatus(candidates), nil
}

// WriteMetrics writes the metrics textfile when one is configured.
func (e *Engine) WriteMetrics() error {
	if e.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := e.monitor.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
