package search

import (
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/ranking"
)

// SearchMonitor provides hooks to observe a search.
// It receives the ranking callbacks as well as the gathering steps before them.
type SearchMonitor interface {
	ranking.Monitor

	// Gathered is called once per slot, in slot order, after every provider returned.
	Gathered(slot Slot, candidates int, err error)

	// Merged is called with the number of candidates before and after de-duplication.
	Merged(gathered, unique int)
}

// Observe adapts a ranking monitor to a SearchMonitor that ignores gathering.
func Observe(m ranking.Monitor) SearchMonitor {
	if sm, ok := m.(SearchMonitor); ok {
		return sm
	}
	return &rankingOnly{Monitor: m}
}

type rankingOnly struct {
	ranking.Monitor
}

func (r *rankingOnly) Gathered(_ Slot, _ int, _ error) {}
func (r *rankingOnly) Merged(_, _ int)                 {}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query, _ int)                     {}
func (n *noopMonitor) AfterScoring(_ []*core.ScoredCandidate)        {}
func (n *noopMonitor) AfterFilter(_ ranking.State, _ float64, _ int) {}
func (n *noopMonitor) Relaxed(_, _ float64)                          {}
func (n *noopMonitor) FellBack(_ int)                                {}
func (n *noopMonitor) Finish(_ ranking.Outcome)                      {}
func (n *noopMonitor) Gathered(_ Slot, _ int, _ error)               {}
func (n *noopMonitor) Merged(_, _ int)                               {}
