package task

import (
	"sync"
	"sync/atomic"
)

// SequenceTracker orders snapshot saves. It remembers the newest sequence
// number handed out and the newest one saved, and serializes saves so an
// older snapshot never overwrites a newer one.
type SequenceTracker struct {
	latest atomic.Uint64

	mu    sync.Mutex
	saved uint64
}

// NewSequenceTracker returns a tracker that has seen nothing.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{}
}

// Observe records that a snapshot with sequence seq exists.
func (t *SequenceTracker) Observe(seq uint64) {
	for {
		cur := t.latest.Load()
		if seq <= cur || t.latest.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Latest returns the newest observed sequence number.
func (t *SequenceTracker) Latest() uint64 {
	return t.latest.Load()
}

// Saved returns the sequence number of the last successful save.
func (t *SequenceTracker) Saved() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saved
}

// Do runs save for the snapshot seq unless a newer snapshot has been
// observed or saved, in which case it reports skipped. Calls are serialized.
func (t *SequenceTracker) Do(seq uint64, save func() error) (skipped bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq <= t.saved || seq < t.latest.Load() {
		return true, nil
	}
	if err := save(); err != nil {
		return false, err
	}
	t.saved = seq
	return false, nil
}
