// Package progress provides ProgressReporter implementations: a
// logrus-backed reporter for operators and a no-op for tests.
package progress

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// Ensure implementations satisfy the port.
var (
	_ driven.ProgressReporter = (*LogReporter)(nil)
	_ driven.ProgressReporter = (*Nop)(nil)
)

// LogReporter logs monotonically increasing per-stage counters.
type LogReporter struct {
	mu     sync.Mutex
	counts map[driven.Stage]int
	totals map[driven.Stage]int
	last   time.Time
	log    *logrus.Entry
}

// NewLogReporter creates a reporter writing to the given logger.
func NewLogReporter(log *logrus.Entry) *LogReporter {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LogReporter{
		counts: make(map[driven.Stage]int),
		totals: make(map[driven.Stage]int),
		log:    log.WithField("component", "progress"),
	}
}

// SetTotal records the expected total for a stage.
func (r *LogReporter) SetTotal(stage driven.Stage, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[stage] = total
}

// Add advances a stage counter and logs the new value.
func (r *LogReporter) Add(stage driven.Stage, delta int) {
	if delta == 0 {
		return
	}

	r.mu.Lock()
	r.counts[stage] += delta
	count := r.counts[stage]
	total := r.totals[stage]
	r.last = time.Now()
	r.mu.Unlock()

	fields := logrus.Fields{"stage": string(stage), "count": count}
	if total > 0 {
		fields["total"] = total
	}
	r.log.WithFields(fields).Debug("progress")
}

// Count returns the current counter for a stage.
func (r *LogReporter) Count(stage driven.Stage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[stage]
}

// LastUpdate returns the time of the most recent counter change.
func (r *LogReporter) LastUpdate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Nop discards all progress updates.
type Nop struct{}

// SetTotal discards the total.
func (Nop) SetTotal(driven.Stage, int) {}

// Add discards the update.
func (Nop) Add(driven.Stage, int) {}

// LastUpdate returns the zero time.
func (Nop) LastUpdate() time.Time { return time.Time{} }
