package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/rankit/ai/mock"
	"github.com/poiesic/rankit/catalog"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/ranking"
	"github.com/poiesic/rankit/scoring"
	"github.com/poiesic/rankit/source"
	"github.com/poiesic/rankit/storage"
	"github.com/poiesic/rankit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededRepository(t *testing.T) storage.CandidateRepository {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	_, err = repo.AddCandidates(context.Background(), catalog.Default()...)
	require.NoError(t, err)
	return repo
}

func newRanker(t *testing.T, opts ...ranking.Option) *ranking.Ranker {
	t.Helper()
	r, err := ranking.NewRanker(opts...)
	require.NoError(t, err)
	return r
}

func resultIDs(response *Response) []string {
	out := make([]string, 0, len(response.Results()))
	for _, sc := range response.Results() {
		out = append(out, sc.Candidate.Id)
	}
	return out
}

// recordingMonitor captures gathering callbacks.
type recordingMonitor struct {
	noopMonitor
	slots   []Slot
	errs    []error
	merged  [2]int
	outcome ranking.Outcome
}

func (m *recordingMonitor) Gathered(slot Slot, _ int, err error) {
	m.slots = append(m.slots, slot)
	m.errs = append(m.errs, err)
}

func (m *recordingMonitor) Merged(gathered, unique int) {
	m.merged = [2]int{gathered, unique}
}

func (m *recordingMonitor) Finish(outcome ranking.Outcome) {
	m.outcome = outcome
}

// countingSource records queries and returns one hit per call.
type countingSource struct {
	mu      sync.Mutex
	queries []string
}

func (s *countingSource) Search(_ context.Context, query string) ([]core.RawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return []core.RawResult{{
		Title:   "Solidity security audit toolkit",
		URL:     "https://example.com/toolkit",
		Snippet: "security audit for solidity",
	}}, nil
}

type failingProvider struct{}

func (failingProvider) Name() string { return "broken" }
func (failingProvider) Candidates(context.Context, Request) ([]*core.Candidate, error) {
	return nil, errors.New("backend exploded")
}

func TestNewSearcher(t *testing.T) {
	repo := newSeededRepository(t)
	catalogProvider, err := NewCatalogProvider(repo)
	require.NoError(t, err)
	ranker := newRanker(t)

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(ranker, []Provider{catalogProvider})
		require.NoError(t, err)
		searcher.Release()
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(ranker, []Provider{catalogProvider}, WithLogger(nil), WithPoolSize(0))
		require.NoError(t, err)
		assert.Equal(t, slog.Default(), searcher.logger)
		searcher.Release()
	})

	t.Run("nil ranker", func(t *testing.T) {
		_, err := NewSearcher(nil, []Provider{catalogProvider})
		assert.Equal(t, ErrRankerRequired, err)
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewSearcher(ranker, nil)
		assert.Equal(t, ErrProviderRequired, err)

		_, err = NewSearcher(ranker, []Provider{nil})
		assert.Equal(t, ErrProviderRequired, err)
	})

	t.Run("provider constructors", func(t *testing.T) {
		_, err := NewCatalogProvider(nil)
		assert.Equal(t, ErrRepositoryRequired, err)
		_, err = NewSourceProvider("x", nil)
		assert.Equal(t, ErrSourceRequired, err)
		_, err = NewSemanticProvider(repo, nil, 0.5, 10)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestSearch_Catalog(t *testing.T) {
	repo := newSeededRepository(t)
	catalogProvider, err := NewCatalogProvider(repo)
	require.NoError(t, err)

	searcher, err := NewSearcher(newRanker(t), []Provider{catalogProvider})
	require.NoError(t, err)
	defer searcher.Release()

	response, err := searcher.Search(context.Background(), core.Query{Text: "solidity security audit", Limit: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, response.RunID)
	assert.Equal(t, 8, response.Gathered)
	assert.Empty(t, response.Failed)
	assert.Equal(t, []string{
		"crytic/slither",
		"ConsenSys/mythril",
		"OpenZeppelin/openzeppelin-contracts",
	}, resultIDs(response))
	assert.True(t, response.Outcome.Relaxed())
}

func TestSearch_EmptyCatalog(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	catalogProvider, err := NewCatalogProvider(repo)
	require.NoError(t, err)

	searcher, err := NewSearcher(newRanker(t), []Provider{catalogProvider})
	require.NoError(t, err)
	defer searcher.Release()

	response, err := searcher.Search(context.Background(), core.Query{Text: "anything", Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, response.Results())
	assert.Empty(t, response.Results())
}

func TestSearch_LayersAndSlotOrder(t *testing.T) {
	src := &countingSource{}
	sourceProvider, err := NewSourceProvider("web", src)
	require.NoError(t, err)
	static := NewStaticProvider("seed", catalog.Default())

	searcher, err := NewSearcher(
		newRanker(t, ranking.WithProfile(mustProfile(t, "search"))),
		[]Provider{static, sourceProvider},
		WithLayers(DefaultLayers()...),
	)
	require.NoError(t, err)
	defer searcher.Release()

	monitor := &recordingMonitor{}
	response, err := searcher.SearchWithMonitor(context.Background(), core.Query{Text: "solidity security", Limit: 5}, monitor)
	require.NoError(t, err)

	require.Len(t, monitor.slots, 5)
	assert.Equal(t, Slot{Provider: "seed", Layer: "direct"}, monitor.slots[0])
	for i, layer := range DefaultLayers() {
		assert.Equal(t, Slot{Provider: "web", Layer: layer.Name}, monitor.slots[i+1])
	}

	assert.Len(t, src.queries, 4)
	assert.Contains(t, src.queries, "solidity security blockchain ethereum solidity defi")
	assert.Contains(t, src.queries, "solidity security security audit vulnerability assessment")

	// Four identical hits collapse into one candidate
	assert.Equal(t, 12, response.Gathered)
	assert.Equal(t, [2]int{12, 9}, monitor.merged)
	assert.Equal(t, response.Outcome.Trace, monitor.outcome.Trace)
	assert.LessOrEqual(t, len(response.Results()), 5)
}

func TestSearch_FailingProvider(t *testing.T) {
	searcher, err := NewSearcher(newRanker(t), []Provider{
		failingProvider{},
		NewStaticProvider("seed", catalog.Default()),
	})
	require.NoError(t, err)
	defer searcher.Release()

	response, err := searcher.Search(context.Background(), core.Query{Text: "solidity security audit", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Provider: "broken", Layer: "direct"}}, response.Failed)
	assert.Len(t, response.Results(), 3)
}

func TestSearch_SourceTimeout(t *testing.T) {
	slow := source.Func(func(ctx context.Context, _ string) ([]core.RawResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	sourceProvider, err := NewSourceProvider("slow", slow, WithSourceTimeout(10*time.Millisecond))
	require.NoError(t, err)

	searcher, err := NewSearcher(newRanker(t), []Provider{
		sourceProvider,
		NewStaticProvider("seed", catalog.Default()),
	})
	require.NoError(t, err)
	defer searcher.Release()

	response, err := searcher.Search(context.Background(), core.Query{Text: "solidity", Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, response.Failed, "source failures degrade to zero candidates")
	assert.Equal(t, 8, response.Gathered)
	assert.Len(t, response.Results(), 2)
}

func TestSearch_EmptyQuerySkipsSources(t *testing.T) {
	src := &countingSource{}
	sourceProvider, err := NewSourceProvider("web", src)
	require.NoError(t, err)

	searcher, err := NewSearcher(newRanker(t), []Provider{sourceProvider}, WithLayers(DefaultLayers()...))
	require.NoError(t, err)
	defer searcher.Release()

	response, err := searcher.Search(context.Background(), core.Query{Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, src.queries)
	assert.Empty(t, response.Results())
}

func TestSearch_CanceledContext(t *testing.T) {
	searcher, err := NewSearcher(newRanker(t), []Provider{NewStaticProvider("seed", catalog.Default())})
	require.NoError(t, err)
	defer searcher.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = searcher.Search(ctx, core.Query{Text: "solidity"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_Concurrent(t *testing.T) {
	var calls atomic.Int32
	counting := source.Func(func(ctx context.Context, query string) ([]core.RawResult, error) {
		calls.Add(1)
		return []core.RawResult{{Title: query, URL: "https://example.com/" + query}}, nil
	})
	sourceProvider, err := NewSourceProvider("web", counting)
	require.NoError(t, err)

	searcher, err := NewSearcher(newRanker(t), []Provider{sourceProvider}, WithLayers(DefaultLayers()...), WithPoolSize(2))
	require.NoError(t, err)
	defer searcher.Release()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response, err := searcher.Search(context.Background(), core.Query{Text: "defi", Limit: 10})
			assert.NoError(t, err)
			assert.Len(t, response.Results(), 4)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(32), calls.Load())
}

func TestSemanticProvider(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = repo.AddCandidates(ctx,
		&core.Candidate{Id: "near", DisplayName: "near", Vector: []float32{1, 0}},
		&core.Candidate{Id: "far", DisplayName: "far", Vector: []float32{0, 1}},
	)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		assert.Equal(t, "solidity", text)
		return []float32{1, 0}, nil
	}

	provider, err := NewSemanticProvider(repo, embedder, 0.5, 0)
	require.NoError(t, err)

	candidates, err := provider.Candidates(ctx, Request{Query: "solidity", Layer: DirectLayer})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "near", candidates[0].Id)
	assert.InDelta(t, 1.0, candidates[0].Feature(core.FeatureSemantic), 1e-6)

	stored, err := repo.GetCandidate(ctx, "near")
	require.NoError(t, err)
	assert.Zero(t, stored.Feature(core.FeatureSemantic))

	empty, err := provider.Candidates(ctx, Request{})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestSemanticProvider_EmbedderError(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider, err := NewSemanticProvider(repo, embedder, 0.5, 10)
	require.NoError(t, err)

	_, err = provider.Candidates(context.Background(), Request{Query: "x"})
	assert.Error(t, err)
}

func mustProfile(t *testing.T, name string) scoring.Profile {
	t.Helper()
	profile, err := scoring.ProfileByName(name)
	require.NoError(t, err)
	return profile
}
