package search

import (
	"strings"

	"github.com/poiesic/rankit/core"
)

// Enhancement levels accepted by BlockchainQuery.
const (
	LevelBasic    = "basic"
	LevelEnhanced = "enhanced"
	LevelQuantum  = "quantum"
)

// Result limits of the specialised searches.
const (
	BlockchainLimit  = 10
	IntegrationLimit = 15

	// IntegrationMinSynergy is the synergy label count that marks a strong integration candidate.
	IntegrationMinSynergy = 2
	IntegrationFallback   = 10
)

// BlockchainQuery builds a blockchain search for topic, optionally narrowed to
// a protocol. Level adds extra search terms; unknown levels add none.
func BlockchainQuery(topic, protocol, level string) core.Query {
	parts := []string{"blockchain", topic}
	if protocol != "" {
		parts = append(parts, protocol)
	}
	switch level {
	case LevelEnhanced:
		parts = append(parts, "intelligent", "advanced", "consciousness")
	case LevelQuantum:
		parts = append(parts, "quantum", "fourth-dimensional", "paradox-resolution")
	}
	return core.Query{Text: join(parts), Limit: BlockchainLimit}
}

// IntegrationQuery builds a search for repositories offering the given kind
// of integration and meeting every requirement.
func IntegrationQuery(kind string, requirements ...string) core.Query {
	parts := append([]string{kind, "integration", "api", "sdk"}, requirements...)
	return core.Query{Text: join(parts), Limit: IntegrationLimit}
}

// FilterBySynergy keeps results with at least minLabels synergy labels,
// preserving order. When none qualify it returns up to fallback of the
// original results instead.
func FilterBySynergy(results []*core.ScoredCandidate, minLabels, fallback int) []*core.ScoredCandidate {
	out := make([]*core.ScoredCandidate, 0, len(results))
	for _, sc := range results {
		if len(sc.Candidate.Synergy) >= minLabels {
			out = append(out, sc)
		}
	}
	if len(out) > 0 {
		return out
	}
	return results[:min(max(fallback, 0), len(results))]
}

func join(parts []string) string {
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			words = append(words, part)
		}
	}
	return strings.Join(words, " ")
}
