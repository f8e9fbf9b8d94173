package ranking

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/features"
	"github.com/poiesic/rankit/scoring"
)

// State is a step of the ranking state machine.
type State int

const (
	StateInitial State = iota
	StateFilteredHigh
	StateFilteredLow
	StateUnfiltered
	StateTruncated
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateFilteredHigh:
		return "filtered_high"
	case StateFilteredLow:
		return "filtered_low"
	case StateUnfiltered:
		return "unfiltered"
	case StateTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the ranking thresholds.
type Config struct {
	HighThreshold float64
	LowThreshold  float64
	MaxComplexity float64 // applied during the high pass only, 0 disables
}

// DefaultConfig returns thresholds 0.7 and 0.5 with no complexity bound.
func DefaultConfig() Config {
	return Config{HighThreshold: 0.7, LowThreshold: 0.5}
}

// Validate checks 0 <= low <= high <= 1 and 0 <= max complexity <= 1.
func (c Config) Validate() error {
	if !core.IsUnitInterval(c.LowThreshold) || !core.IsUnitInterval(c.HighThreshold) ||
		c.LowThreshold > c.HighThreshold {
		return fmt.Errorf("%w: low %v, high %v", ErrInvalidThresholds, c.LowThreshold, c.HighThreshold)
	}
	if !core.IsUnitInterval(c.MaxComplexity) {
		return fmt.Errorf("%w: %v", ErrInvalidComplexity, c.MaxComplexity)
	}
	return nil
}

// Outcome is the result of one ranking pass.
type Outcome struct {
	Results    []*core.ScoredCandidate
	Trace      []State // states visited, in order
	Considered int     // distinct candidates scored
}

// Final returns the last state visited.
func (o Outcome) Final() State {
	if len(o.Trace) == 0 {
		return StateInitial
	}
	return o.Trace[len(o.Trace)-1]
}

// Relaxed reports whether the low threshold was used.
func (o Outcome) Relaxed() bool {
	return slices.Contains(o.Trace, StateFilteredLow)
}

// Ranker scores and selects candidates for a query.
// A Ranker is immutable once built and safe for concurrent use.
type Ranker struct {
	extractor *features.Extractor
	scorer    *scoring.Scorer
	config    Config
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithConfig sets the thresholds.
// Default is DefaultConfig().
func WithConfig(config Config) Option {
	return func(r *Ranker) error {
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		return nil
	}
}

// WithScorer sets the scorer.
// Default is scoring.Default().
func WithScorer(scorer *scoring.Scorer) Option {
	return func(r *Ranker) error {
		if scorer != nil {
			r.scorer = scorer
		}
		return nil
	}
}

// WithExtractor sets the feature extractor.
func WithExtractor(extractor *features.Extractor) Option {
	return func(r *Ranker) error {
		if extractor != nil {
			r.extractor = extractor
		}
		return nil
	}
}

// WithProfile sets the extractor, scorer and thresholds from a scoring profile.
func WithProfile(profile scoring.Profile) Option {
	return func(r *Ranker) error {
		scorer, err := profile.Scorer()
		if err != nil {
			return err
		}
		extractor, err := profile.Extractor()
		if err != nil {
			return err
		}
		config := Config{
			HighThreshold: profile.HighThreshold,
			LowThreshold:  profile.LowThreshold,
			MaxComplexity: profile.MaxComplexity,
		}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", profile.Name, err)
		}
		r.scorer, r.extractor, r.config = scorer, extractor, config
		return nil
	}
}

// NewRanker creates a ranker using the default profile unless options say otherwise.
func NewRanker(opts ...Option) (*Ranker, error) {
	extractor, err := features.NewExtractor()
	if err != nil {
		return nil, err
	}
	r := &Ranker{
		extractor: extractor,
		scorer:    scoring.Default(),
		config:    DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Config returns the ranker's thresholds.
func (r *Ranker) Config() Config {
	return r.config
}

// Rank returns at most query.EffectiveLimit() scored candidates.
// Candidates are never modified. Nil candidates are skipped and duplicate ids
// are collapsed to their best scoring entry.
func (r *Ranker) Rank(query core.Query, candidates []*core.Candidate) Outcome {
	return r.RankWithMonitor(query, candidates, nil)
}

// RankWithMonitor is Rank with a monitor receiving callbacks at each state.
func (r *Ranker) RankWithMonitor(query core.Query, candidates []*core.Candidate, monitor Monitor) Outcome {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	limit := query.EffectiveLimit()
	monitor.Start(query, len(candidates))

	outcome := Outcome{Trace: []State{StateInitial}}

	scored := r.score(query.Text, candidates)
	outcome.Considered = len(scored)
	monitor.AfterScoring(scored)

	if len(scored) == 0 {
		outcome.Results = []*core.ScoredCandidate{}
		outcome.Trace = append(outcome.Trace, StateTruncated)
		monitor.Finish(outcome)
		return outcome
	}

	selected := r.filter(scored, r.config.HighThreshold, r.config.MaxComplexity)
	outcome.Trace = append(outcome.Trace, StateFilteredHigh)
	monitor.AfterFilter(StateFilteredHigh, r.config.HighThreshold, len(selected))

	if len(selected) < limit {
		monitor.Relaxed(r.config.HighThreshold, r.config.LowThreshold)
		selected = r.filter(scored, r.config.LowThreshold, 0)
		outcome.Trace = append(outcome.Trace, StateFilteredLow)
		monitor.AfterFilter(StateFilteredLow, r.config.LowThreshold, len(selected))

		if len(selected) == 0 {
			selected = scored
			outcome.Trace = append(outcome.Trace, StateUnfiltered)
			monitor.FellBack(len(scored))
		}
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	outcome.Results = slices.Clone(selected)
	outcome.Trace = append(outcome.Trace, StateTruncated)

	r.logger.Debug("ranked candidates",
		"query", query.Text,
		"limit", limit,
		"considered", outcome.Considered,
		"returned", len(outcome.Results),
		"relaxed", outcome.Relaxed())

	monitor.Finish(outcome)
	return outcome
}

// score extracts features for every distinct candidate and returns them sorted.
func (r *Ranker) score(text string, candidates []*core.Candidate) []*core.ScoredCandidate {
	prepared := r.extractor.Prepare(text)
	byID := make(map[string]*core.ScoredCandidate, len(candidates))
	scored := make([]*core.ScoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		if c == nil {
			continue
		}
		f := prepared.Extract(c)
		sc := &core.ScoredCandidate{
			Candidate:   c,
			Score:       r.scorer.Score(f),
			MatchedTags: prepared.MatchTags(c),
			Features:    f,
		}
		if existing, ok := byID[c.Id]; ok {
			if sc.Score > existing.Score {
				*existing = *sc
			}
			continue
		}
		byID[c.Id] = sc
		scored = append(scored, sc)
	}

	SortScored(scored)
	return scored
}

// filter keeps scored candidates at or above threshold, preserving order.
func (r *Ranker) filter(scored []*core.ScoredCandidate, threshold, maxComplexity float64) []*core.ScoredCandidate {
	out := make([]*core.ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.Score < threshold {
			continue
		}
		if maxComplexity > 0 && sc.Candidate.Feature(core.FeatureComplexity) > maxComplexity {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// SortScored orders scored candidates by score descending, ties by id ascending.
func SortScored(scored []*core.ScoredCandidate) {
	slices.SortStableFunc(scored, func(a, b *core.ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Candidate.Id, b.Candidate.Id)
	})
}
