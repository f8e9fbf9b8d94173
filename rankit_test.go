package rankit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/rankit/ai/mock"
	"github.com/poiesic/rankit/config"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/indexing"
	"github.com/poiesic/rankit/ranking"
	"github.com/poiesic/rankit/scoring"
	"github.com/poiesic/rankit/search"
	"github.com/poiesic/rankit/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func resultIDs(response *search.Response) []string {
	out := make([]string, 0, len(response.Results()))
	for _, sc := range response.Results() {
		out = append(out, sc.Candidate.Id)
	}
	return out
}

func TestNewEngine_Defaults(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	assert.Equal(t, scoring.ProfileDefault, e.Profile().Name)
	assert.NotNil(t, e.Repository())
	assert.NotNil(t, e.Metrics())

	status, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, status.Candidates)
	assert.Zero(t, status.Embedded)

	response, err := e.Rank(ctx, core.Query{Text: "solidity security audit", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"crytic/slither",
		"ConsenSys/mythril",
		"OpenZeppelin/openzeppelin-contracts",
	}, resultIDs(response))
}

func TestEngine_RankUsesConfiguredLimit(t *testing.T) {
	e := newEngine(t, nil)

	response, err := e.Rank(context.Background(), core.Query{Text: "zzz"})
	require.NoError(t, err)
	assert.Len(t, response.Results(), config.Default().Ranking.Limit)
	assert.Contains(t, response.Outcome.Trace, ranking.StateUnfiltered)
}

func TestNewEngine_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Ranking.Profile = "quantum"
	_, err := NewEngine(ctx, cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	high, low := 0.4, 0.6
	cfg = config.Default()
	cfg.Ranking.HighThreshold = &high
	cfg.Ranking.LowThreshold = &low
	_, err = NewEngine(ctx, cfg)
	assert.ErrorIs(t, err, ranking.ErrInvalidThresholds)

	notDir := filepath.Join(t.TempDir(), "not_a_dir")
	require.NoError(t, os.WriteFile(notDir, []byte("test"), 0o644))
	cfg = config.Default()
	cfg.Database.Path = notDir
	_, err = NewEngine(ctx, cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewEngine(ctx, cfg)
	assert.Error(t, err)
}

func TestNewEngine_ThresholdOverride(t *testing.T) {
	low := 0.0
	cfg := config.Default()
	cfg.Ranking.LowThreshold = &low

	e := newEngine(t, cfg)
	response, err := e.Rank(context.Background(), core.Query{Text: "zzz", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, response.Results(), 3)
	assert.True(t, response.Outcome.Relaxed())
	assert.NotContains(t, response.Outcome.Trace, ranking.StateUnfiltered)
}

func TestNewEngine_PersistentStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
candidates:
  - id: acme/widgets
    name: widgets
    tags: [go, api]
    features:
      base_quality: 0.9
  - id: acme/gadgets
    name: gadgets
`), 0o600))

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "db")
	cfg.Catalog.Path = catalogPath

	e, err := NewEngine(ctx, cfg)
	require.NoError(t, err)
	status, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Candidates)
	require.NoError(t, e.Close())

	// A populated store is not seeded again
	cfg.Catalog.Path = ""
	e, err = NewEngine(ctx, cfg)
	require.NoError(t, err)
	defer e.Close()
	status, err = e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Candidates)
}

func TestNewEngine_NoSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Seed = false
	e := newEngine(t, cfg)

	status, err := e.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.Candidates)

	response, err := e.Rank(context.Background(), core.Query{Text: "security"})
	require.NoError(t, err)
	assert.Empty(t, response.Results())
}

func TestEngine_Embedder(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	e := newEngine(t, nil, WithEmbedder(embedder))

	status, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, status.Embedded, "seeding embeds the catalog")

	var buf bytes.Buffer
	result, err := e.Reindex(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, &indexing.Report{Embedded: 8}, result)
	assert.Contains(t, buf.String(), "8/8")

	calls := embedder.CallCount()
	response, err := e.Rank(ctx, core.Query{Text: "solidity security audit", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, calls+1, embedder.CallCount(), "the query is embedded once")
	assert.Len(t, response.Results(), 3)
}

func TestEngine_ReindexRequiresEmbedder(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Reindex(context.Background(), nil)
	assert.ErrorIs(t, err, indexing.ErrEmbedderRequired)
}

func TestEngine_Source(t *testing.T) {
	hit := core.RawResult{
		Title:   "Echidna smart contract fuzzer",
		URL:     "https://github.com/crytic/echidna",
		Snippet: "Ethereum smart contract fuzzer",
	}
	var queries []string
	src := source.Func(func(_ context.Context, query string) ([]core.RawResult, error) {
		queries = append(queries, query)
		return []core.RawResult{hit}, nil
	})
	e := newEngine(t, nil, WithSource(src))

	response, err := e.Rank(context.Background(), core.Query{Text: "zzz", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"zzz"}, queries)
	assert.Equal(t, 9, response.Gathered)
	assert.Contains(t, resultIDs(response), hit.URL)
}

func TestEngine_Files(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vault.sol"), []byte("contract Vault {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.py"), []byte("print('deploy')"), 0o644))

	cfg := config.Default()
	cfg.Files.Paths = []string{dir}
	e := newEngine(t, cfg)

	response, err := e.Rank(context.Background(), core.Query{Text: "zzz", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 10, response.Gathered)
	ids := resultIDs(response)
	assert.Contains(t, ids, "file:"+filepath.ToSlash(filepath.Join(dir, "vault.sol")))
	assert.Contains(t, ids, "file:"+filepath.ToSlash(filepath.Join(dir, "deploy.py")))

	status, err := e.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, status.Candidates, "files are ranked, never stored")
}

func TestEngine_WriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rankit.prom")
	cfg := config.Default()
	cfg.Metrics.Textfile = path
	e := newEngine(t, cfg)

	_, err := e.Rank(context.Background(), core.Query{Text: "security", Limit: 2})
	require.NoError(t, err)
	require.NoError(t, e.WriteMetrics())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rankit_rankings_total 1")

	// Disabled without a path
	assert.NoError(t, newEngine(t, nil).WriteMetrics())
}
