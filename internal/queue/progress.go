package queue

import "sync"

// Tracker is the progress sink: job id to last-reported percentage. Exactly
// one worker writes a given key while status queries read concurrently, so a
// plain mutex with last-write-wins semantics is sufficient.
type Tracker struct {
	mu       sync.RWMutex
	percents map[int64]int
}

// NewTracker constructs an empty progress tracker.
func NewTracker() *Tracker {
	return &Tracker{percents: make(map[int64]int)}
}

// Set records the completion percentage for a job, clamped to 0-100.
func (t *Tracker) Set(jobID int64, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.mu.Lock()
	t.percents[jobID] = percent
	t.mu.Unlock()
}

// Get returns the last-known percentage for a job.
func (t *Tracker) Get(jobID int64) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	percent, ok := t.percents[jobID]
	return percent, ok
}

// Remove forgets a job once its worker cycle completes.
func (t *Tracker) Remove(jobID int64) {
	t.mu.Lock()
	delete(t.percents, jobID)
	t.mu.Unlock()
}

// Sink returns a callback bound to one job id, suitable for handing to the
// retrieval service.
func (t *Tracker) Sink(jobID int64) func(percent int) {
	return func(percent int) { t.Set(jobID, percent) }
}
