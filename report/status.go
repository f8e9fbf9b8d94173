package report

import (
	"time"

	"github.com/poiesic/rankit/core"
)

// Status describes the candidate catalog as a whole.
type Status struct {
	Candidates    int       `json:"candidates"`
	Embedded      int       `json:"embedded"`
	Languages     int       `json:"languages"`
	Patterns      int       `json:"patterns"`
	MeanQuality   float64   `json:"mean_quality"`
	MeanCoherence float64   `json:"mean_coherence"`
	LastUpdate    time.Time `json:"last_update,omitzero"`
}

// CatalogStatus summarizes candidates. Patterns counts distinct synergy labels.
func CatalogStatus(candidates []*core.Candidate) Status {
	var s Status
	languages := map[string]bool{}
	patterns := map[string]bool{}
	var quality, coherence float64
	for _, c := range candidates {
		if c == nil {
			continue
		}
		s.Candidates++
		if len(c.Vector) > 0 {
			s.Embedded++
		}
		if c.Language != "" {
			languages[c.Language] = true
		}
		for _, label := range c.Synergy {
			patterns[label] = true
		}
		quality += c.Feature(core.FeatureBaseQuality)
		coherence += c.Feature(core.FeatureCoherence)
		if c.UpdatedAt.After(s.LastUpdate) {
			s.LastUpdate = c.UpdatedAt
		}
	}
	s.Languages = len(languages)
	s.Patterns = len(patterns)
	if s.Candidates > 0 {
		s.MeanQuality = quality / float64(s.Candidates)
		s.MeanCoherence = coherence / float64(s.Candidates)
	}
	return s
}
