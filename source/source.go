// Package source defines external search backends and converts their raw
// hits into rankable candidates.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
)

// Source is an external search backend.
type Source interface {
	Search(ctx context.Context, query string) ([]core.RawResult, error)
}

// Func adapts a plain function to the Source interface.
type Func func(ctx context.Context, query string) ([]core.RawResult, error)

// Search calls f.
func (f Func) Search(ctx context.Context, query string) ([]core.RawResult, error) {
	return f(ctx, query)
}

// IntegrationKeywords mark a hit as something that can be integrated.
// Each one found becomes an "integration_<keyword>" synergy label.
var IntegrationKeywords = []string{"api", "sdk", "library", "framework", "integration"}

const (
	// synergyFactors is the number of synergy labels that saturates the synergy feature.
	synergyFactors = 4

	// Lengths at which the text-shape features reach 1.
	snippetDepth = 500
	titleLength  = 100

	keywordBoost   = 0.1 // added to relevance per mentioned pattern keyword
	relevancePad   = 5
	patternMinimum = 2 // keywords a group needs before it becomes a synergy label
)

// ToCandidate converts a raw hit into a candidate scored against query.
// Groups are the keyword patterns used for the relevance boost and for
// pattern synergy labels; nil means features.SearchGroups.
func ToCandidate(raw core.RawResult, query string, groups []features.KeywordGroup) *core.Candidate {
	if groups == nil {
		groups = features.SearchGroups()
	}

	id := raw.URL
	if id == "" {
		id = core.Signature(raw.Title, raw.URL)
	}
	name := strings.TrimSpace(raw.Title)
	if name == "" {
		name = id
	}
	text := raw.Title + " " + raw.Snippet

	synergy := make([]string, 0, len(IntegrationKeywords))
	for _, keyword := range IntegrationKeywords {
		if features.Mentions(text, keyword) {
			synergy = append(synergy, "integration_"+keyword)
		}
	}

	boost := 0.0
	for _, group := range groups {
		mentioned := 0
		for _, keyword := range group.Keywords {
			if features.Mentions(text, keyword) {
				mentioned++
			}
		}
		boost += float64(mentioned) * keywordBoost
		if mentioned >= patternMinimum {
			synergy = append(synergy, "pattern_"+group.Name)
		}
	}

	return &core.Candidate{
		Id:          id,
		DisplayName: name,
		URL:         raw.URL,
		Description: raw.Snippet,
		Source:      raw.Source,
		Tags:        core.NormalizeTags(features.SignificantTokens(raw.Title)),
		Synergy:     synergy,
		Features: map[string]float64{
			core.FeatureBaseQuality: min(Relevance(raw, query)+boost, 1),
			core.FeatureCoherence:   min(float64(len(raw.Snippet))/snippetDepth, 1),
			core.FeatureComplexity:  min(float64(len(raw.Title))/titleLength, 1),
			core.FeatureSynergy:     min(float64(len(synergy))/synergyFactors, 1),
		},
	}
}

// Relevance is the keyword relevance of a hit: title matches count double
// and the result is damped by the query length.
func Relevance(raw core.RawResult, query string) float64 {
	queryTokens := features.TokenSet(query)
	titleTokens := features.TokenSet(raw.Title)
	snippetTokens := features.TokenSet(raw.Snippet)

	titleMatch, snippetMatch := 0, 0
	for token := range queryTokens {
		if titleTokens[token] {
			titleMatch++
		}
		if snippetTokens[token] {
			snippetMatch++
		}
	}
	return core.Clamp01(float64(2*titleMatch+snippetMatch) / float64(len(features.Tokenize(query))+relevancePad))
}

// ToCandidates converts every hit. Hits that would collide on id keep the first.
func ToCandidates(raws []core.RawResult, query string, groups []features.KeywordGroup) []*core.Candidate {
	seen := make(map[string]bool, len(raws))
	out := make([]*core.Candidate, 0, len(raws))
	for _, raw := range raws {
		c := ToCandidate(raw, query, groups)
		if seen[c.Id] {
			continue
		}
		seen[c.Id] = true
		out = append(out, c)
	}
	return out
}

// Named labels the hits of a source with name when they carry none.
func Named(name string, src Source) Source {
	return Func(func(ctx context.Context, query string) ([]core.RawResult, error) {
		raws, err := src.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for i := range raws {
			if raws[i].Source == "" {
				raws[i].Source = name
			}
		}
		return raws, nil
	})
}
