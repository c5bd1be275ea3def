package embedder

import (
	"fmt"
	"io"
	"time"
)

// ProgressTracker reports the progress of an embedding pass to a writer,
// typically os.Stderr. The pipeline runs its stages single-threaded, so the
// tracker is not safe for concurrent use.
type ProgressTracker struct {
	writer       io.Writer
	total        int
	done         int
	lastReported int
	reportEvery  int
	startedAt    time.Time
}

// NewProgressTracker creates a tracker over total items that reports every
// reportEvery items.
func NewProgressTracker(writer io.Writer, total, reportEvery int) *ProgressTracker {
	return &ProgressTracker{
		writer:      writer,
		total:       total,
		reportEvery: reportEvery,
	}
}

// Start begins timing. Updates before Start are ignored.
func (p *ProgressTracker) Start() {
	p.startedAt = time.Now()
	p.done = 0
	p.lastReported = 0
}

// Update sets the number of items processed so far and reports when a
// reporting interval has been crossed.
func (p *ProgressTracker) Update(done int) {
	if p.startedAt.IsZero() {
		return
	}
	if done > p.total {
		done = p.total
	}
	p.done = done

	if p.done-p.lastReported >= p.reportEvery {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final progress line and a trailing newline.
func (p *ProgressTracker) Finish() {
	if p.startedAt.IsZero() {
		return
	}
	p.done = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	if p.startedAt.IsZero() {
		return 0
	}
	return time.Since(p.startedAt)
}

func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startedAt)
	rate := float64(p.done) / elapsed.Seconds()

	pct := 0.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEmbedded %d/%d chunks (%.1f%%) - %.1f chunks/s",
		p.done, p.total, pct, rate)

	if rate > 0 && p.done < p.total {
		eta := time.Duration(float64(p.total-p.done) / rate * float64(time.Second))
		fmt.Fprintf(p.writer, " - ETA %v", eta.Round(time.Second))
	}
}
