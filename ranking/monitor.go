package ranking

import "github.com/poiesic/rankit/core"

// Monitor provides hooks to observe a ranking pass.
// Implement this interface to track intermediate steps of the state machine.
type Monitor interface {
	Start(query core.Query, candidates int)
	AfterScoring(scored []*core.ScoredCandidate)
	AfterFilter(state State, threshold float64, survivors int)
	Relaxed(from, to float64)
	FellBack(total int)
	Finish(outcome Outcome)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query, _ int)              {}
func (n *noopMonitor) AfterScoring(_ []*core.ScoredCandidate) {}
func (n *noopMonitor) AfterFilter(_ State, _ float64, _ int)  {}
func (n *noopMonitor) Relaxed(_, _ float64)                   {}
func (n *noopMonitor) FellBack(_ int)                         {}
func (n *noopMonitor) Finish(_ Outcome)                       {}

// Monitors fans every hook out to each monitor in order.
type Monitors []Monitor

var _ Monitor = Monitors(nil)

func (m Monitors) Start(query core.Query, candidates int) {
	for _, mon := range m {
		mon.Start(query, candidates)
	}
}

func (m Monitors) AfterScoring(scored []*core.ScoredCandidate) {
	for _, mon := range m {
		mon.AfterScoring(scored)
	}
}

func (m Monitors) AfterFilter(state State, threshold float64, survivors int) {
	for _, mon := range m {
		mon.AfterFilter(state, threshold, survivors)
	}
}

func (m Monitors) Relaxed(from, to float64) {
	for _, mon := range m {
		mon.Relaxed(from, to)
	}
}

func (m Monitors) FellBack(total int) {
	for _, mon := range m {
		mon.FellBack(total)
	}
}

func (m Monitors) Finish(outcome Outcome) {
	for _, mon := range m {
		mon.Finish(outcome)
	}
}
