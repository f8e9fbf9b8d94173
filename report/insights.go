package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/rankit/core"
)

// Level is a coarse integration complexity bucket.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// HighCoherence is the coherence above which a candidate counts as highly coherent.
const HighCoherence = 0.9

// ComplexityLevel buckets a complexity value: Low below 0.4, High from 0.7.
func ComplexityLevel(complexity float64) Level {
	switch {
	case complexity < 0.4:
		return LevelLow
	case complexity < 0.7:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Insights summarizes a ranked result set.
type Insights struct {
	Count             int      `json:"count"`
	AverageScore      float64  `json:"average_score"`
	DominantLanguage  string   `json:"dominant_language,omitempty"`
	AverageComplexity float64  `json:"average_complexity"`
	Complexity        Level    `json:"complexity"`
	TopSynergy        []string `json:"top_synergy"`
	HighCoherence     int      `json:"high_coherence"`
}

// Analyze computes insights for results. An empty result set yields zero
// averages and a Low complexity level.
func Analyze(results []*core.ScoredCandidate) Insights {
	in := Insights{TopSynergy: []string{}}

	languages := map[string]int{}
	synergy := map[string]int{}
	var score, complexity float64
	for _, sc := range results {
		if sc == nil || sc.Candidate == nil {
			continue
		}
		c := sc.Candidate
		in.Count++
		score += sc.Score
		complexity += c.Feature(core.FeatureComplexity)
		if c.Language != "" {
			languages[c.Language]++
		}
		for _, label := range c.Synergy {
			synergy[label]++
		}
		if c.Feature(core.FeatureCoherence) > HighCoherence {
			in.HighCoherence++
		}
	}

	if in.Count > 0 {
		in.AverageScore = score / float64(in.Count)
		in.AverageComplexity = complexity / float64(in.Count)
	}
	in.Complexity = ComplexityLevel(in.AverageComplexity)
	if top := mostFrequent(languages, 1); len(top) > 0 {
		in.DominantLanguage = top[0]
	}
	in.TopSynergy = mostFrequent(synergy, 3)
	return in
}

// Lines renders the insights as short human-readable sentences.
func (in Insights) Lines() []string {
	lines := []string{fmt.Sprintf("Average score: %.2f", in.AverageScore)}
	if in.DominantLanguage != "" {
		lines = append(lines, "Dominant language: "+in.DominantLanguage)
	}
	lines = append(lines, fmt.Sprintf("Average integration complexity: %s (%.2f)", in.Complexity, in.AverageComplexity))
	if len(in.TopSynergy) > 0 {
		lines = append(lines, "Top synergy patterns: "+strings.Join(in.TopSynergy, ", "))
	}
	if in.HighCoherence > 0 {
		lines = append(lines, fmt.Sprintf("High coherence candidates: %d", in.HighCoherence))
	}
	return lines
}

// mostFrequent returns up to n keys ordered by count descending, then by key.
func mostFrequent(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
