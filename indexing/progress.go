package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress is a point-in-time view of a tracked job.
type Progress struct {
	Current int
	Total   int
	Elapsed time.Duration
}

// Percent returns completion in percent. An empty job is complete.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// Rate returns items processed per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Current) / p.Elapsed.Seconds()
}

// ProgressTracker reports job progress to a writer every reportInterval items.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu             sync.Mutex
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
}

// NewProgressTracker creates a tracker. A nil writer discards output.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking from zero.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Increment adds delta processed items, capped at the total.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.current = min(p.current+delta, p.total)
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish reports the final count followed by a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Snapshot returns the current progress.
func (p *ProgressTracker) Snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := Progress{Current: p.current, Total: p.total}
	if p.started {
		progress.Elapsed = time.Since(p.startTime)
	}
	return progress
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	progress := Progress{Current: p.current, Total: p.total, Elapsed: time.Since(p.startTime)}
	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f candidates/s",
		progress.Current, progress.Total, progress.Percent(), progress.Rate())
}
