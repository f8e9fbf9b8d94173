package features

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/rankit/core"
)

// Names of the features computed by the Extractor.
const (
	TagOverlap     = "tag_overlap"
	GroupMatch     = "group_match"
	FocusAlignment = "focus_alignment"
	Verbatim       = "verbatim"

	// GroupPrefix prefixes the per-group query ratios, e.g. "group.security".
	GroupPrefix = "group."
)

var ErrInvalidGroup = errors.New("keyword group must have a name and at least one keyword")

// Features maps feature names to values in [0,1].
type Features map[string]float64

// Get returns the named feature, or 0 when absent.
func (f Features) Get(name string) float64 {
	return f[name]
}

// Extractor computes named numeric features for a query and a candidate.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	groups   []KeywordGroup
	focuses  []Focus
	verbatim bool
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithGroups replaces the keyword groups.
// Default is DefaultGroups().
func WithGroups(groups ...KeywordGroup) Option {
	return func(e *Extractor) error {
		for _, g := range groups {
			if strings.TrimSpace(g.Name) == "" || len(g.Keywords) == 0 {
				return fmt.Errorf("%w: %q", ErrInvalidGroup, g.Name)
			}
		}
		e.groups = groups
		return nil
	}
}

// WithFocuses replaces the intent focus table. Passing no focuses disables focus_alignment.
// Default is DefaultFocuses().
func WithFocuses(focuses ...Focus) Option {
	return func(e *Extractor) error {
		e.focuses = focuses
		return nil
	}
}

// WithVerbatim enables the verbatim feature: 1 when every significant query word
// appears in the candidate's name, description or tags.
func WithVerbatim(enabled bool) Option {
	return func(e *Extractor) error {
		e.verbatim = enabled
		return nil
	}
}

// NewExtractor creates an extractor.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		groups:  DefaultGroups(),
		focuses: DefaultFocuses(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Groups returns the extractor's keyword groups.
func (e *Extractor) Groups() []KeywordGroup {
	return e.groups
}

// Extract computes the features of candidate for queryText.
func (e *Extractor) Extract(queryText string, candidate *core.Candidate) Features {
	return e.Prepare(queryText).Extract(candidate)
}

// Prepare tokenizes queryText once so it can be matched against many candidates.
func (e *Extractor) Prepare(queryText string) *Prepared {
	tokens := TokenSet(queryText)

	ratios := make([]float64, len(e.groups))
	for i, g := range e.groups {
		ratios[i] = g.Ratio(tokens)
	}

	var active []Focus
	for _, f := range e.focuses {
		if f.Active(tokens) {
			active = append(active, f)
		}
	}

	return &Prepared{
		text:     queryText,
		tokens:   tokens,
		groups:   e.groups,
		ratios:   ratios,
		focuses:  active,
		verbatim: e.verbatim,
	}
}

// Prepared is a tokenized query bound to an extractor's configuration.
type Prepared struct {
	text     string
	tokens   map[string]bool
	groups   []KeywordGroup
	ratios   []float64
	focuses  []Focus
	verbatim bool
}

// Tokens returns the number of distinct query tokens.
func (p *Prepared) Tokens() int {
	return len(p.tokens)
}

// MatchTags returns the candidate's distinct tags present among the query
// tokens. Tags are compared lower-cased and returned sorted.
func (p *Prepared) MatchTags(candidate *core.Candidate) []string {
	if candidate == nil {
		return nil
	}
	return p.matchTags(core.NormalizeTags(candidate.Tags))
}

func (p *Prepared) matchTags(tags []string) []string {
	var matched []string
	for _, tag := range tags {
		if p.tokens[tag] {
			matched = append(matched, tag)
		}
	}
	return matched
}

// Extract computes the features of candidate. The candidate is not modified.
func (p *Prepared) Extract(candidate *core.Candidate) Features {
	out := make(Features, len(p.groups)+8)
	var tags []string
	if candidate != nil {
		for name, value := range candidate.Features {
			out[name] = core.Clamp01(value)
		}
		tags = core.NormalizeTags(candidate.Tags)
	}

	// Tags are a set: duplicates and case variants count once
	out[TagOverlap] = float64(len(p.matchTags(tags))) / float64(max(1, len(tags)))

	best := 0.0
	for i, g := range p.groups {
		out[GroupPrefix+g.Name] = p.ratios[i]
		if p.ratios[i] == 0 {
			continue
		}
		if weighted := p.ratios[i] * g.Membership(candidate); weighted > best {
			best = weighted
		}
	}
	out[GroupMatch] = best

	alignment := 0.0
	if candidate != nil {
		for _, f := range p.focuses {
			if f.Criterion == nil {
				continue
			}
			if v := core.Clamp01(f.Weight * f.Criterion(candidate)); v > alignment {
				alignment = v
			}
		}
	}
	out[FocusAlignment] = alignment

	if p.verbatim {
		out[Verbatim] = 0
		if candidate != nil && ContainsAllQueryWords(document(candidate), p.text) {
			out[Verbatim] = 1
		}
	}

	return out
}

func document(c *core.Candidate) string {
	return c.DisplayName + " " + c.Description + " " + strings.Join(c.Tags, " ")
}
