package scoring

import (
	"fmt"
	"maps"
	"slices"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
)

// Profile names.
const (
	ProfileDefault    = "default"
	ProfileRepository = "repository"
	ProfileSearch     = "search"
	ProfileHybrid     = "hybrid"
)

// Profile bundles the weights, keyword groups and ranking thresholds used for
// one kind of candidate.
type Profile struct {
	Name          string
	Description   string
	Weights       Weights
	Groups        []features.KeywordGroup
	Verbatim      bool    // compute the verbatim feature
	HighThreshold float64 // minimum score in the first filter pass
	LowThreshold  float64 // minimum score once relaxed
	MaxComplexity float64 // upper bound on complexity in the first pass, 0 disables
}

// Scorer builds a scorer from the profile's weights.
func (p Profile) Scorer() (*Scorer, error) {
	s, err := NewScorer(p.Weights)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return s, nil
}

// Extractor builds a feature extractor using the profile's groups.
func (p Profile) Extractor(opts ...features.Option) (*features.Extractor, error) {
	base := []features.Option{features.WithVerbatim(p.Verbatim)}
	if len(p.Groups) > 0 {
		base = append(base, features.WithGroups(p.Groups...))
	}
	return features.NewExtractor(append(base, opts...)...)
}

var profiles = map[string]func() Profile{
	ProfileDefault: func() Profile {
		return Profile{
			Name:          ProfileDefault,
			Description:   "tag overlap, quality, coherence and keyword groups",
			Weights:       DefaultWeights(),
			Groups:        features.DefaultGroups(),
			HighThreshold: 0.7,
			LowThreshold:  0.5,
		}
	},
	ProfileRepository: func() Profile {
		return Profile{
			Name:        ProfileRepository,
			Description: "catalog repositories weighted by quality and intent focus",
			Weights: Weights{
				core.FeatureBaseQuality: 0.3,
				core.FeatureCoherence:   0.2,
				features.TagOverlap:     0.2,
				features.GroupMatch:     0.2,
				features.FocusAlignment: 0.1,
			},
			Groups:        features.DefaultGroups(),
			HighThreshold: 0.7,
			LowThreshold:  0.5,
			MaxComplexity: 0.8,
		}
	},
	ProfileSearch: func() Profile {
		return Profile{
			Name:        ProfileSearch,
			Description: "external search hits weighted by relevance and pattern resonance",
			Weights: Weights{
				core.FeatureBaseQuality: 0.4,
				features.GroupMatch:     0.3,
				core.FeatureCoherence:   0.2,
				core.FeatureSynergy:     0.1,
			},
			Groups:        features.SearchGroups(),
			HighThreshold: 0.3,
			LowThreshold:  0.1,
		}
	},
	ProfileHybrid: func() Profile {
		return Profile{
			Name:        ProfileHybrid,
			Description: "default signals plus embedding similarity and verbatim matches",
			Weights: Weights{
				features.TagOverlap:     0.3,
				core.FeatureBaseQuality: 0.2,
				core.FeatureCoherence:   0.1,
				features.GroupMatch:     0.1,
				core.FeatureSemantic:    0.2,
				features.Verbatim:       0.1,
			},
			Groups:        features.DefaultGroups(),
			Verbatim:      true,
			HighThreshold: 0.7,
			LowThreshold:  0.5,
		}
	},
}

// ProfileByName returns a fresh copy of the named profile.
func ProfileByName(name string) (Profile, error) {
	build, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return build(), nil
}

// ProfileNames returns the registered profile names in sorted order.
func ProfileNames() []string {
	return slices.Sorted(maps.Keys(profiles))
}
