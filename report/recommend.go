package report

import (
	"slices"
	"strings"

	"github.com/poiesic/rankit/core"
)

// Kind classifies a recommendation.
type Kind string

const (
	KindQuick     Kind = "Quick Integration"
	KindHighValue Kind = "High-Value Integration"
	KindSecurity  Kind = "Security Enhancement"
	KindAI        Kind = "AI Enhancement"
	KindStrategic Kind = "Strategic Integration"
)

// Effort estimates.
const (
	EffortLow    = "Low (1-2 days)"
	EffortMedium = "Medium (3-7 days)"
	EffortHigh   = "High (1-2 weeks)"
)

// Recommendation is the integration advice for one ranked candidate.
type Recommendation struct {
	Priority int      `json:"priority"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url,omitempty"`
	Kind     Kind     `json:"kind"`
	Effort   string   `json:"effort"`
	Benefits []string `json:"benefits"`
	Score    float64  `json:"score"`
	Notes    []string `json:"notes"`
}

// Recommend produces one recommendation per result, keeping the ranking
// order. Priorities start at 1.
func Recommend(results []*core.ScoredCandidate) []Recommendation {
	recs := make([]Recommendation, 0, len(results))
	for _, sc := range results {
		if sc == nil || sc.Candidate == nil {
			continue
		}
		c := sc.Candidate
		recs = append(recs, Recommendation{
			Priority: len(recs) + 1,
			ID:       c.Id,
			Name:     c.DisplayName,
			URL:      c.URL,
			Kind:     kindOf(sc),
			Effort:   Effort(c.Feature(core.FeatureComplexity)),
			Benefits: append([]string{}, c.Synergy...),
			Score:    sc.Score,
			Notes:    notes(c),
		})
	}
	return recs
}

// Effort estimates the integration effort for a complexity value.
func Effort(complexity float64) string {
	switch {
	case complexity < 0.3:
		return EffortLow
	case complexity < 0.6:
		return EffortMedium
	default:
		return EffortHigh
	}
}

func kindOf(sc *core.ScoredCandidate) Kind {
	c := sc.Candidate
	switch {
	case c.Feature(core.FeatureComplexity) < 0.3:
		return KindQuick
	case sc.Score > 0.9:
		return KindHighValue
	case hasLabelPart(c.Synergy, "security"):
		return KindSecurity
	case hasLabelPart(c.Synergy, "ai", "consciousness"):
		return KindAI
	default:
		return KindStrategic
	}
}

func notes(c *core.Candidate) []string {
	out := []string{}
	switch c.Language {
	case "Python":
		out = append(out, "Python integration - consider a virtual environment")
	case "JavaScript", "TypeScript":
		out = append(out, "JavaScript/Node.js integration - npm package available")
	case "Go":
		out = append(out, "Go integration - compile as a binary or import as a library")
	}
	if c.Feature(core.FeatureComplexity) > 0.7 {
		out = append(out, "Complex integration - start with a proof of concept")
	}
	if hasLabelPart(c.Synergy, "security") {
		out = append(out, "Security-focused tool - integrate into the CI/CD pipeline")
	}
	if c.Feature(core.FeatureCoherence) > HighCoherence {
		out = append(out, "High coherence - stable, well documented surface")
	}
	return out
}

// hasLabelPart reports whether any synergy label has one of parts as an
// underscore separated component. "blockchain_core" does not contain "ai".
func hasLabelPart(labels []string, parts ...string) bool {
	for _, label := range labels {
		for _, p := range strings.Split(label, "_") {
			if slices.Contains(parts, p) {
				return true
			}
		}
	}
	return false
}
