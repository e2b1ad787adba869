package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coresched/internal/task"
)

// fakeClock is a hand-advanced monotonic clock.
type fakeClock struct {
	ns uint64
}

func (c *fakeClock) Now() uint64 { return c.ns }

func sleepingTask(id task.ID) *task.Task {
	t := task.New(id, "sleeper", 0, 0, nil)
	t.SetState(task.StateSleeping)
	return t
}

func TestSetTimerRejectsPastDeadlines(t *testing.T) {
	clock := &fakeClock{ns: 100}
	w := NewTimerWheel(clock)
	tk := sleepingTask(1)

	require.Nil(t, w.SetTimer(50, tk))
	require.Nil(t, w.SetTimer(100, tk)) // now is not "in the future"
	require.Equal(t, 0, w.Len())

	// nothing to deliver either
	w.CheckEvents(func(*task.Task) { t.Fatal("nothing should wake") })
}

func TestSetTimerCancelAndQuery(t *testing.T) {
	clock := &fakeClock{ns: 0}
	w := NewTimerWheel(clock)
	tk := sleepingTask(1)

	key := w.SetTimer(500, tk)
	require.NotNil(t, key)
	require.True(t, w.HasTimer(*key))
	require.Equal(t, 1, w.Len())

	w.CancelTimer(*key)
	require.False(t, w.HasTimer(*key))
	require.Equal(t, 0, w.Len())
}

func TestCheckEventsWakesInDeadlineOrder(t *testing.T) {
	clock := &fakeClock{ns: 0}
	w := NewTimerWheel(clock)

	early := sleepingTask(1)
	mid := sleepingTask(2)
	late := sleepingTask(3)
	require.NotNil(t, w.SetTimer(30, late))
	require.NotNil(t, w.SetTimer(10, early))
	require.NotNil(t, w.SetTimer(20, mid))

	var woken []task.ID
	wake := func(tk *task.Task) { woken = append(woken, tk.ID()) }

	// only the first two are due; the scan must stop at the still-future one
	clock.ns = 25
	w.CheckEvents(wake)
	require.Equal(t, []task.ID{1, 2}, woken)
	require.Equal(t, 1, w.Len())
	require.Equal(t, task.StateReady, early.State())
	require.Equal(t, task.StateReady, mid.State())
	require.Equal(t, task.StateSleeping, late.State())

	clock.ns = 31
	w.CheckEvents(wake)
	require.Equal(t, []task.ID{1, 2, 3}, woken)
	require.Equal(t, 0, w.Len())
}

func TestCheckEventsBreaksDeadlineTiesBySequence(t *testing.T) {
	clock := &fakeClock{ns: 0}
	w := NewTimerWheel(clock)

	first := sleepingTask(1)
	second := sleepingTask(2)
	require.NotNil(t, w.SetTimer(10, first))
	require.NotNil(t, w.SetTimer(10, second))

	var woken []task.ID
	clock.ns = 10
	w.CheckEvents(func(tk *task.Task) { woken = append(woken, tk.ID()) })
	require.Equal(t, []task.ID{1, 2}, woken)
}

func TestCheckEventsPanicsOnForeignWakeup(t *testing.T) {
	clock := &fakeClock{ns: 0}
	w := NewTimerWheel(clock)

	tk := sleepingTask(1)
	require.NotNil(t, w.SetTimer(10, tk))

	// Nothing but the wheel may move a Sleeping task; a task found in any
	// other state at wakeup is a violated invariant.
	tk.SetState(task.StateReady)
	clock.ns = 10
	require.Panics(t, func() {
		w.CheckEvents(func(*task.Task) {})
	})
}
