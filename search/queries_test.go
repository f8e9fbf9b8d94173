package search

import (
	"testing"

	"github.com/poiesic/rankit/core"
	"github.com/stretchr/testify/assert"
)

func TestBlockchainQuery(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		protocol string
		level    string
		want     string
	}{
		{name: "basic", topic: "defi", level: LevelBasic, want: "blockchain defi"},
		{name: "with protocol", topic: "nft", protocol: "ethereum", level: "", want: "blockchain nft ethereum"},
		{name: "enhanced", topic: "defi", protocol: "uniswap", level: LevelEnhanced, want: "blockchain defi uniswap intelligent advanced consciousness"},
		{name: "quantum", topic: "smart contracts", level: LevelQuantum, want: "blockchain smart contracts quantum fourth-dimensional paradox-resolution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BlockchainQuery(tt.topic, tt.protocol, tt.level)
			assert.Equal(t, tt.want, q.Text)
			assert.Equal(t, BlockchainLimit, q.Limit)
		})
	}
}

func TestIntegrationQuery(t *testing.T) {
	q := IntegrationQuery("payment", "rest", " ", "go")
	assert.Equal(t, "payment integration api sdk rest go", q.Text)
	assert.Equal(t, IntegrationLimit, q.Limit)

	assert.Equal(t, "oracle integration api sdk", IntegrationQuery("oracle").Text)
}

func TestFilterBySynergy(t *testing.T) {
	scored := func(id string, labels ...string) *core.ScoredCandidate {
		return &core.ScoredCandidate{Candidate: &core.Candidate{Id: id, DisplayName: id, Synergy: labels}}
	}
	results := []*core.ScoredCandidate{
		scored("a", "x"),
		scored("b", "x", "y"),
		scored("c"),
		scored("d", "x", "y", "z"),
	}

	filtered := FilterBySynergy(results, 2, 1)
	assert.Len(t, filtered, 2)
	assert.Equal(t, "b", filtered[0].Candidate.Id)
	assert.Equal(t, "d", filtered[1].Candidate.Id)

	fallback := FilterBySynergy(results, 5, 3)
	assert.Len(t, fallback, 3)
	assert.Equal(t, "a", fallback[0].Candidate.Id)

	assert.Len(t, FilterBySynergy(results, 5, 10), 4)
	assert.Empty(t, FilterBySynergy(results, 5, -1))
	assert.Empty(t, FilterBySynergy(nil, 1, 3))
}

func TestRequestText(t *testing.T) {
	assert.Equal(t, "q", Request{Query: " q "}.Text())
	assert.Equal(t, "q a b", Request{Query: "q", Layer: Layer{Expansion: "a b"}}.Text())
	assert.Equal(t, "a b", Request{Layer: Layer{Expansion: "a b"}}.Text())
	assert.Equal(t, "", Request{}.Text())
}
