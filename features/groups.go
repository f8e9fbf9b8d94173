package features

import (
	"strings"

	"github.com/poiesic/rankit/core"
)

// KeywordGroup is a named set of keywords. A query matches a group in proportion
// to how many of the group's keywords it contains.
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// DefaultGroups returns the keyword groups used to analyze repositories.
// Group names line up with the worthiness criteria carried by catalog candidates.
func DefaultGroups() []KeywordGroup {
	return []KeywordGroup{
		{Name: core.CriterionSecurity, Keywords: []string{"security", "audit", "vulnerability", "protection", "safe"}},
		{Name: core.CriterionInnovation, Keywords: []string{"innovative", "cutting-edge", "advanced", "novel", "breakthrough"}},
		{Name: "integration", Keywords: []string{"api", "sdk", "library", "framework", "plugin", "integration"}},
		{Name: core.CriterionCommunity, Keywords: []string{"popular", "maintained", "active", "community", "contributors"}},
		{Name: core.CriterionDocumentation, Keywords: []string{"documentation", "tutorial", "guide", "examples", "readme"}},
	}
}

// SearchGroups returns the keyword groups used to judge external search hits.
func SearchGroups() []KeywordGroup {
	return []KeywordGroup{
		{Name: "intelligence", Keywords: []string{"consciousness", "aware", "intelligent", "quantum"}},
		{Name: "synergy", Keywords: []string{"integration", "synergy", "compatible", "enhanced"}},
		{Name: "dimensional", Keywords: []string{"fourth-dimensional", "multi-dimensional", "paradox", "quantum"}},
		{Name: core.CriterionSecurity, Keywords: []string{"security", "audit", "vulnerability", "protection"}},
	}
}

// Ratio returns the fraction of the group's keywords present in tokens.
func (g KeywordGroup) Ratio(tokens map[string]bool) float64 {
	if len(g.Keywords) == 0 {
		return 0
	}
	matched := 0
	for _, keyword := range g.Keywords {
		if tokens[keyword] {
			matched++
		}
	}
	return float64(matched) / float64(len(g.Keywords))
}

// Membership returns how strongly a candidate belongs to the group, in [0,1].
// A tag or synergy label mentioning one of the keywords is full membership;
// otherwise a feature named after the group (a worthiness criterion) is used.
func (g KeywordGroup) Membership(c *core.Candidate) float64 {
	if c == nil {
		return 0
	}
	for _, keyword := range g.Keywords {
		for _, tag := range c.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), keyword) {
				return 1
			}
		}
		for _, label := range c.Synergy {
			if labelMentions(label, keyword) {
				return 1
			}
		}
	}
	return core.Clamp01(c.Feature(g.Name))
}

// labelMentions matches keyword against the underscore separated parts of a synergy label.
func labelMentions(label, keyword string) bool {
	for _, part := range strings.Split(strings.ToLower(label), "_") {
		if part == keyword {
			return true
		}
	}
	return false
}

// Focus is an intent signal: when any trigger word appears in the query, the
// candidate's alignment is Weight times the value returned by Criterion.
type Focus struct {
	Name      string
	Weight    float64
	Triggers  []string
	Criterion func(c *core.Candidate) float64
}

// DefaultFocuses returns the intent signals used for repository analysis.
func DefaultFocuses() []Focus {
	return []Focus{
		{
			Name:      "security_focus",
			Weight:    0.9,
			Triggers:  []string{"security", "secure", "audit", "vulnerability"},
			Criterion: criterion(core.CriterionSecurity),
		},
		{
			Name:     "integration_focus",
			Weight:   0.8,
			Triggers: []string{"integrate", "integration", "api", "sdk"},
			Criterion: func(c *core.Candidate) float64 {
				return 1 - core.Clamp01(c.Feature(core.FeatureComplexity))
			},
		},
		{
			Name:      "quality_focus",
			Weight:    0.85,
			Triggers:  []string{"best", "top", "recommended", "excellent"},
			Criterion: criterion(core.CriterionStability),
		},
		{
			Name:      "ai_enhancement_focus",
			Weight:    0.8,
			Triggers:  []string{"ai", "ml", "intelligence", "consciousness"},
			Criterion: criterion(core.CriterionInnovation),
		},
	}
}

func criterion(name string) func(c *core.Candidate) float64 {
	return func(c *core.Candidate) float64 {
		return core.Clamp01(c.Feature(name))
	}
}

// Active reports whether any trigger word is among tokens.
func (f Focus) Active(tokens map[string]bool) bool {
	for _, trigger := range f.Triggers {
		if tokens[trigger] {
			return true
		}
	}
	return false
}
