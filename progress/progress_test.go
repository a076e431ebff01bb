package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := &Tracker{}
	assert.Zero(t, tr.Done())
	assert.Zero(t, tr.Total())
	assert.Empty(t, tr.Label())
	assert.False(t, tr.Cancelled())

	tr.Begin(10, "matching")
	assert.Equal(t, int64(10), tr.Total())
	assert.Equal(t, "matching", tr.Label())

	tr.Advance(3)
	tr.Advance(2)
	assert.Equal(t, int64(5), tr.Done())

	// A new run resets the completed count.
	tr.Begin(4, "indexing")
	assert.Zero(t, tr.Done())
	assert.Equal(t, int64(4), tr.Total())
	assert.Equal(t, "indexing", tr.Label())
}

func TestTracker_OnAdvance(t *testing.T) {
	var calls [][2]int64
	tr := &Tracker{OnAdvance: func(done, total int64) {
		calls = append(calls, [2]int64{done, total})
	}}

	tr.Begin(3, "matching")
	tr.Advance(1)
	tr.Advance(2)

	assert.Equal(t, [][2]int64{{1, 3}, {3, 3}}, calls)
}

func TestTracker_Cancel(t *testing.T) {
	tr := &Tracker{}
	tr.Cancel()
	assert.True(t, tr.Cancelled())

	// Begin does not clear a pending cancellation.
	tr.Begin(2, "matching")
	assert.True(t, tr.Cancelled())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := &Tracker{}
	tr.Begin(100, "matching")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.Advance(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), tr.Done())
}

func TestNoop(t *testing.T) {
	var s Sink = Noop{}
	s.Begin(5, "matching")
	s.Advance(5)
	assert.False(t, s.Cancelled())
}
