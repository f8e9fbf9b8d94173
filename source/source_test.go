package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/rankit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slitherHit = core.RawResult{
	Title:   "Slither static analyzer",
	URL:     "https://github.com/crytic/slither",
	Snippet: "Security audit framework for solidity",
	Source:  "github",
}

func TestRelevance(t *testing.T) {
	assert.InDelta(t, 2.0/7.0, Relevance(slitherHit, "solidity security"), 1e-9)
	assert.InDelta(t, 2.0/6.0, Relevance(slitherHit, "slither"), 1e-9)
	assert.Zero(t, Relevance(slitherHit, ""))
	assert.Zero(t, Relevance(core.RawResult{}, "solidity"))
}

func TestToCandidate(t *testing.T) {
	c := ToCandidate(slitherHit, "solidity security", nil)

	assert.Equal(t, "https://github.com/crytic/slither", c.Id)
	assert.Equal(t, "Slither static analyzer", c.DisplayName)
	assert.Equal(t, "github", c.Source)
	assert.Equal(t, []string{"analyzer", "slither", "static"}, c.Tags)
	assert.Equal(t, []string{"integration_framework", "pattern_security"}, c.Synergy)

	assert.InDelta(t, 2.0/7.0+0.2, c.Feature(core.FeatureBaseQuality), 1e-9)
	assert.InDelta(t, 37.0/500.0, c.Feature(core.FeatureCoherence), 1e-9)
	assert.InDelta(t, 0.23, c.Feature(core.FeatureComplexity), 1e-9)
	assert.InDelta(t, 0.5, c.Feature(core.FeatureSynergy), 1e-9)
	require.NoError(t, core.ValidateCandidate(c))
}

func TestToCandidate_Fallbacks(t *testing.T) {
	c := ToCandidate(core.RawResult{Snippet: strings.Repeat("x", 900)}, "anything", nil)

	assert.Equal(t, core.Signature("", ""), c.Id)
	assert.Equal(t, c.Id, c.DisplayName)
	assert.Equal(t, 1.0, c.Feature(core.FeatureCoherence))
	assert.Empty(t, c.Tags)
	require.NoError(t, core.ValidateCandidate(c))
}

func TestToCandidate_BaseQualityCapped(t *testing.T) {
	raw := core.RawResult{
		Title:   "quantum consciousness security audit",
		URL:     "https://example.com/q",
		Snippet: "aware intelligent vulnerability protection integration synergy compatible enhanced paradox",
	}
	c := ToCandidate(raw, "quantum consciousness security audit", nil)
	assert.Equal(t, 1.0, c.Feature(core.FeatureBaseQuality))
	assert.Equal(t, 1.0, c.Feature(core.FeatureSynergy))
}

func TestToCandidates_Dedupes(t *testing.T) {
	other := slitherHit
	other.Title = "Another title"

	out := ToCandidates([]core.RawResult{slitherHit, other, {Title: "x", URL: "https://x"}}, "q", nil)
	require.Len(t, out, 2)
	assert.Equal(t, "Slither static analyzer", out[0].DisplayName)
	assert.Equal(t, "https://x", out[1].Id)
}

func TestNamed(t *testing.T) {
	src := Named("searxng", Func(func(ctx context.Context, query string) ([]core.RawResult, error) {
		return []core.RawResult{{Title: "a"}, {Title: "b", Source: "github"}}, nil
	}))

	raws, err := src.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "searxng", raws[0].Source)
	assert.Equal(t, "github", raws[1].Source)

	boom := errors.New("boom")
	failing := Named("searxng", Func(func(ctx context.Context, query string) ([]core.RawResult, error) {
		return nil, boom
	}))
	_, err = failing.Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "searxng")
}
