package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/ranking"
)

// Slot identifies one (provider, layer) gathering task. Static providers have
// a single slot with the DirectLayer.
type Slot struct {
	Provider string
	Layer    string
}

func (s Slot) String() string {
	return s.Provider + "/" + s.Layer
}

// Response is the result of one search run.
type Response struct {
	RunID   string
	Outcome ranking.Outcome

	// Gathered counts candidates before de-duplication.
	Gathered int

	// Failed lists the slots whose provider returned an error.
	Failed []Slot
}

// Results returns the ranked results.
func (r Response) Results() []*core.ScoredCandidate {
	return r.Outcome.Results
}

// Searcher gathers, merges and ranks candidates.
type Searcher struct {
	ranker    *ranking.Ranker
	providers []Provider
	layers    []Layer
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLayers sets the query layers. With no layers providers are asked with
// the query text unchanged.
func WithLayers(layers ...Layer) Option {
	return func(s *Searcher) error {
		s.layers = layers
		return nil
	}
}

// WithPoolSize sets the worker pool size for gathering.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a searcher ranking the candidates of providers.
func NewSearcher(ranker *ranking.Ranker, providers []Provider, opts ...Option) (*Searcher, error) {
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if len(providers) == 0 {
		return nil, ErrProviderRequired
	}
	for _, p := range providers {
		if p == nil {
			return nil, ErrProviderRequired
		}
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		ranker:    ranker,
		providers: providers,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Release releases the worker pool. The searcher must not be used afterwards.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search gathers candidates and ranks them for query.
func (s *Searcher) Search(ctx context.Context, query core.Query) (*Response, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

type task struct {
	slot     Slot
	provider Provider
	request  Request
}

type gathered struct {
	candidates []*core.Candidate
	err        error
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
// The only error returned is the context's; provider failures are logged and
// reported in Response.Failed.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query core.Query, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	runID := uuid.NewString()
	logger := s.logger.With("run", runID)
	logger.Debug("search started", "query", query.Text, "limit", query.EffectiveLimit())

	tasks := s.tasks(query.Text)
	slots := make([]gathered, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			candidates, err := t.provider.Candidates(ctx, t.request)
			slots[i] = gathered{candidates: candidates, err: err}
		})
		if err != nil {
			wg.Done()
			slots[i] = gathered{err: fmt.Errorf("submit: %w", err)}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response := &Response{RunID: runID}
	lists := make([][]*core.Candidate, 0, len(slots))
	for i, g := range slots {
		monitor.Gathered(tasks[i].slot, len(g.candidates), g.err)
		if g.err != nil {
			logger.Warn("provider failed", "slot", tasks[i].slot.String(), "err", g.err)
			response.Failed = append(response.Failed, tasks[i].slot)
			continue
		}
		response.Gathered += len(g.candidates)
		lists = append(lists, g.candidates)
	}

	merged := Merge(lists...)
	monitor.Merged(response.Gathered, len(merged))

	response.Outcome = s.ranker.RankWithMonitor(query, merged, monitor)

	logger.Info("search complete",
		"query", query.Text,
		"gathered", response.Gathered,
		"unique", len(merged),
		"returned", len(response.Outcome.Results),
		"failed", len(response.Failed))

	return response, nil
}

// tasks lists the gathering slots in their fixed merge order: providers in
// the order given, each followed by its layers.
func (s *Searcher) tasks(text string) []task {
	layers := s.layers
	if len(layers) == 0 {
		layers = []Layer{DirectLayer}
	}

	var tasks []task
	for _, p := range s.providers {
		if isStatic(p) {
			tasks = append(tasks, task{
				slot:     Slot{Provider: p.Name(), Layer: DirectLayer.Name},
				provider: p,
				request:  Request{Query: text, Layer: DirectLayer},
			})
			continue
		}
		for _, layer := range layers {
			tasks = append(tasks, task{
				slot:     Slot{Provider: p.Name(), Layer: layer.Name},
				provider: p,
				request:  Request{Query: text, Layer: layer},
			})
		}
	}
	return tasks
}
