package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker rewrites one carriage-return terminated status line as
// items are reembedded.
type ProgressTracker struct {
	mu sync.Mutex
	w  io.Writer

	total   int
	every   int
	resumed int // items finished by an earlier run
	done    int
	printed int // value of done at the last printed line
	began   time.Time
}

// NewProgressTracker reports to w every `every` items out of total.
// A non-positive interval reports on every update.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{w: w, total: total, every: max(every, 1)}
}

// Start begins tracking. done is the number of items already handled by an
// earlier run; it counts toward the total but not toward the rate.
func (p *ProgressTracker) Start(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	done = min(done, p.total)
	p.began = time.Now()
	p.resumed, p.done, p.printed = done, done, done
}

// Increment records n more handled items.
func (p *ProgressTracker) Increment(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}
	p.done = min(p.done+n, p.total)
	if p.done-p.printed >= p.every {
		p.print()
	}
}

// Current returns the number of handled items.
func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish marks every item handled and ends the status line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}
	p.done = p.total
	p.print()
	fmt.Fprintln(p.w)
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

// print writes the status line. Callers hold mu.
func (p *ProgressTracker) print() {
	p.printed = p.done

	pct := 100.0
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	var perSec float64
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		perSec = float64(p.done-p.resumed) / secs
	}
	fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%) - %.1f items/s", p.done, p.total, pct, perSec)
}
