package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
)

// Default profile weights.
const (
	WeightTagOverlap  = 0.4
	WeightBaseQuality = 0.3
	WeightCoherence   = 0.2
	WeightGroupMatch  = 0.1
)

// weightSumTolerance absorbs float error when weights are written as decimals.
const weightSumTolerance = 1e-9

// Weights maps feature names to their weight in the score.
type Weights map[string]float64

// DefaultWeights returns the default profile weights.
func DefaultWeights() Weights {
	return Weights{
		features.TagOverlap:     WeightTagOverlap,
		core.FeatureBaseQuality: WeightBaseQuality,
		core.FeatureCoherence:   WeightCoherence,
		features.GroupMatch:     WeightGroupMatch,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, name := range w.names() {
		total += w[name]
	}
	return total
}

// Validate checks that every weight is finite and non-negative and that the
// weights sum to a value in (0,1], which keeps scores inside [0,1] for features
// inside [0,1].
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: no weights", ErrInvalidWeights)
	}
	for _, name := range w.names() {
		v := w[name]
		if name == "" {
			return fmt.Errorf("%w: unnamed feature", ErrInvalidWeights)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidWeights, name, v)
		}
	}
	sum := w.Sum()
	if sum <= 0 || sum > 1+weightSumTolerance {
		return fmt.Errorf("%w: sum %v outside (0,1]", ErrInvalidWeights, sum)
	}
	return nil
}

func (w Weights) names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type term struct {
	feature string
	weight  float64
}

// Scorer computes a weighted relevance score from features.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	terms []term // sorted by feature name so summation order is fixed
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{terms: make([]term, 0, len(weights))}
	for _, name := range weights.names() {
		if weights[name] == 0 {
			continue
		}
		s.terms = append(s.terms, term{feature: name, weight: weights[name]})
	}
	return s, nil
}

// Default returns a scorer using DefaultWeights.
func Default() *Scorer {
	s, err := NewScorer(DefaultWeights())
	if err != nil {
		panic(err)
	}
	return s
}

// Weights returns a copy of the scorer's non-zero weights.
func (s *Scorer) Weights() Weights {
	w := make(Weights, len(s.terms))
	for _, t := range s.terms {
		w[t.feature] = t.weight
	}
	return w
}

// Score returns the weighted sum of f clipped to [0,1]. Missing features count
// as 0, as do NaN values.
func (s *Scorer) Score(f features.Features) float64 {
	total := 0.0
	for _, t := range s.terms {
		total += t.weight * core.Clamp01(f[t.feature])
	}
	return core.Clamp01(total)
}

// Contribution is one feature's share of a score.
type Contribution struct {
	Feature      string
	Value        float64
	Weight       float64
	Contribution float64
}

// Explain returns each weighted feature's contribution, largest first.
func (s *Scorer) Explain(f features.Features) []Contribution {
	out := make([]Contribution, 0, len(s.terms))
	for _, t := range s.terms {
		v := core.Clamp01(f[t.feature])
		out = append(out, Contribution{
			Feature:      t.feature,
			Value:        v,
			Weight:       t.weight,
			Contribution: v * t.weight,
		})
	}
	slices.SortStableFunc(out, func(a, b Contribution) int {
		if c := cmp.Compare(b.Contribution, a.Contribution); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
	return out
}
