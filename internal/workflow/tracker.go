package workflow

import (
	"sync"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// Tracker is the completion barrier for one session's fan-out. Every
// worker goroutine calls MarkComplete when it finishes; exactly one of
// them observes the barrier open and triggers aggregation.
type Tracker struct {
	mu        sync.Mutex
	pending   map[report.Kind]bool
	satisfied bool
}

func NewTracker(required []report.Kind) *Tracker {
	t := &Tracker{pending: make(map[report.Kind]bool, len(required))}
	for _, k := range required {
		t.pending[k] = true
	}
	return t
}

// MarkComplete records one worker's completion. It returns true only for
// the single call that drains the pending set; duplicate and unknown
// kinds never win, and nothing wins twice.
func (t *Tracker) MarkComplete(k report.Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.satisfied || !t.pending[k] {
		return false
	}
	delete(t.pending, k)
	if len(t.pending) == 0 {
		t.satisfied = true
		return true
	}
	return false
}

// Satisfied reports whether the barrier has opened.
func (t *Tracker) Satisfied() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.satisfied
}

// Pending returns the kinds still outstanding.
func (t *Tracker) Pending() []report.Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]report.Kind, 0, len(t.pending))
	for k := range t.pending {
		out = append(out, k)
	}
	return out
}
