package sched

import (
	"fmt"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/emirpasic/gods/trees/redblacktree"

	"coresched/internal/platform"
	"coresched/internal/task"
)

// TimerKey orders wheel entries by deadline, with a monotonic sequence
// breaking ties between equal deadlines.
type TimerKey struct {
	Deadline uint64
	Seq      uint64
}

// timerKeyCmp orders keys for the red-black tree.
func timerKeyCmp(a, b any) int {
	ka, kb := a.(TimerKey), b.(TimerKey)
	switch {
	case ka.Deadline < kb.Deadline:
		return -1
	case ka.Deadline > kb.Deadline:
		return 1
	case ka.Seq < kb.Seq:
		return -1
	case ka.Seq > kb.Seq:
		return 1
	default:
		return 0
	}
}

// TimerWheel is the global deadline-ordered map from wake time to a weak task
// reference. Weak values keep a stale entry from pinning an exited task in
// memory. The wheel is cross-CPU shared and guarded by one lock.
type TimerWheel struct {
	clock platform.Clock
	seq   atomic.Uint64

	mu   sync.Mutex
	tree *redblacktree.Tree
}

func NewTimerWheel(clock platform.Clock) *TimerWheel {
	return &TimerWheel{
		clock: clock,
		tree:  redblacktree.NewWith(timerKeyCmp),
	}
}

// SetTimer registers the task to be woken once deadline has passed. A
// deadline not in the future is silently rejected with nil; the caller is
// trusted to have checked.
func (w *TimerWheel) SetTimer(deadline uint64, t *task.Task) *TimerKey {
	if deadline <= w.clock.Now() {
		return nil
	}
	key := TimerKey{Deadline: deadline, Seq: w.seq.Add(1)}
	w.mu.Lock()
	w.tree.Put(key, weak.Make(t))
	w.mu.Unlock()
	return &key
}

// CancelTimer drops the entry for key, if still present.
func (w *TimerWheel) CancelTimer(key TimerKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tree.Remove(key)
}

// HasTimer reports whether the entry for key is still pending.
func (w *TimerWheel) HasTimer(key TimerKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.tree.Get(key)
	return ok
}

// Len reports the number of pending entries.
func (w *TimerWheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Size()
}

// CheckEvents scans entries in deadline order and stops at the first one
// still in the future. Each due task whose weak reference upgrades is moved
// Sleeping to Ready by CAS and handed to wake; a dead reference is dropped
// silently. A failed CAS on a live task means something other than the wheel
// mutated a sleeping task, which is fatal.
func (w *TimerWheel) CheckEvents(wake func(*task.Task)) {
	now := w.clock.Now()

	w.mu.Lock()
	var dueKeys []TimerKey
	var due []weak.Pointer[task.Task]
	it := w.tree.Iterator()
	for it.Next() {
		key := it.Key().(TimerKey)
		if key.Deadline > now {
			break
		}
		dueKeys = append(dueKeys, key)
		due = append(due, it.Value().(weak.Pointer[task.Task]))
	}
	for _, key := range dueKeys {
		w.tree.Remove(key)
	}
	// NOTE: release the wheel before waking so wake can take queue locks.
	w.mu.Unlock()

	for _, p := range due {
		t := p.Value()
		if t == nil {
			continue // task already exited and was collected
		}
		if !t.TrySetState(task.StateSleeping, task.StateReady) {
			panic(fmt.Sprintf("timer wheel: task %d due for wakeup in state %s", t.ID(), t.State()))
		}
		wake(t)
	}
}
