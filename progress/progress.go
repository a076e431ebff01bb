// Package progress reports matching progress and carries cooperative
// cancellation between a long-running matching run and its caller.
package progress

import "sync/atomic"

// Compile-time checks
var (
	_ Sink = Noop{}
	_ Sink = (*Tracker)(nil)
)

// Sink receives progress for one matching run. Begin is called once before
// any Advance. Implementations must be safe for concurrent use.
type Sink interface {
	// Begin announces the total number of steps the run will perform.
	Begin(total int, label string)

	// Advance records n completed steps.
	Advance(n int)

	// Cancelled reports whether the run should stop early.
	Cancelled() bool
}

// Noop is a Sink that discards progress and never cancels.
type Noop struct{}

func (Noop) Begin(total int, label string) {}
func (Noop) Advance(n int)                 {}
func (Noop) Cancelled() bool               { return false }

// Tracker is a Sink that counts completed steps. Cancel makes Cancelled
// return true for the remainder of the run.
type Tracker struct {
	// OnAdvance, when set, is invoked after every Advance with the updated
	// completed count and the announced total. It must be safe for
	// concurrent use.
	OnAdvance func(done, total int64)

	label     atomic.Value
	total     atomic.Int64
	done      atomic.Int64
	cancelled atomic.Bool
}

func (t *Tracker) Begin(total int, label string) {
	t.total.Store(int64(total))
	t.done.Store(0)
	t.label.Store(label)
}

func (t *Tracker) Advance(n int) {
	done := t.done.Add(int64(n))
	if t.OnAdvance != nil {
		t.OnAdvance(done, t.total.Load())
	}
}

func (t *Tracker) Cancelled() bool {
	return t.cancelled.Load()
}

// Cancel requests that the run stop early. It is safe to call at any time,
// including before Begin.
func (t *Tracker) Cancel() {
	t.cancelled.Store(true)
}

// Done returns the number of completed steps.
func (t *Tracker) Done() int64 {
	return t.done.Load()
}

// Total returns the step count announced by Begin.
func (t *Tracker) Total() int64 {
	return t.total.Load()
}

// Label returns the label announced by Begin.
func (t *Tracker) Label() string {
	if s, ok := t.label.Load().(string); ok {
		return s
	}
	return ""
}
