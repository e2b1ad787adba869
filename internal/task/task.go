package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// ID uniquely identifies a task.
type ID uint64

// State is the task lifecycle state, stored as a small atomic integer.
type State uint32

const (
	// StateReady means the task is in a ready queue, waiting to be scheduled.
	StateReady State = iota
	// StateRunning means the task is currently running on a CPU.
	StateRunning
	// StateSleeping means the task is waiting on the timer wheel.
	StateSleeping
	// StateExited is terminal; the result has been stored.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// EntryFunc is the type-erased task body. The typed wrapper lives in the
// public spawn API.
type EntryFunc func(ctx context.Context) any

// Task is the record identifying one schedulable unit of execution: identity,
// atomic state, execution context, a one-shot entry and a one-shot result
// slot. Queues and the per-CPU slots hold strong pointers; the timer wheel
// holds weak ones.
type Task struct {
	id      ID
	name    string
	parent  ID
	homeCPU int
	isIdle  bool

	state atomic.Uint32
	ctx   *Context

	mu        sync.Mutex
	entry     EntryFunc
	result    any
	hasResult bool
	children  []ID
}

// New creates a task record in the Ready state. The backing goroutine is not
// launched until Start.
func New(id ID, name string, parent ID, homeCPU int, entry EntryFunc) *Task {
	t := &Task{
		id:      id,
		name:    name,
		parent:  parent,
		homeCPU: homeCPU,
		ctx:     NewContext(),
		entry:   entry,
	}
	t.state.Store(uint32(StateReady))
	return t
}

// NewIdle creates the permanent idle task for a CPU. Idle tasks have no entry
// and no backing goroutine of their own: the CPU's scheduling loop adopts the
// context, the analog of an idle task reusing the boot stack.
func NewIdle(id ID, cpu int) *Task {
	t := &Task{
		id:      id,
		name:    fmt.Sprintf("idle-%d", cpu),
		homeCPU: cpu,
		isIdle:  true,
		ctx:     NewContext(),
	}
	t.state.Store(uint32(StateRunning))
	return t
}

func (t *Task) ID() ID            { return t.id }
func (t *Task) Name() string      { return t.name }
func (t *Task) Parent() ID        { return t.parent }
func (t *Task) HomeCPU() int      { return t.homeCPU }
func (t *Task) IsIdle() bool      { return t.isIdle }
func (t *Task) Context() *Context { return t.ctx }

// State returns the current task state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// SetState stores the task state. Only the task itself transitions out of
// Running this way; cross-task wakeups go through TrySetState.
func (t *Task) SetState(s State) {
	t.state.Store(uint32(s))
}

// TrySetState atomically transitions from expected to next. It is the only
// path used for cross-task wakeup, so a sleeper racing a firing timer cannot
// lose the wakeup.
func (t *Task) TrySetState(expected, next State) bool {
	return t.state.CompareAndSwap(uint32(expected), uint32(next))
}

// TakeEntry returns the entry exactly once; nil on every later call, which
// guarantees a task body never runs twice.
func (t *Task) TakeEntry() EntryFunc {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry
	t.entry = nil
	return e
}

// SetResult stores the task's type-erased return value.
func (t *Task) SetResult(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = v
	t.hasResult = true
}

// TakeResult consumes the one-shot result slot.
func (t *Task) TakeResult() (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasResult {
		return nil, false
	}
	v := t.result
	t.result = nil
	t.hasResult = false
	return v, true
}

// AddChild records a spawned child.
func (t *Task) AddChild(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children = append(t.children, id)
}

// Children returns a copy of the child id list.
func (t *Task) Children() []ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ID, len(t.children))
	copy(out, t.children)
	return out
}

// Start launches the backing goroutine, parked at the trampoline until the
// task is first dispatched. The trampoline consumes the entry, stores the
// result, marks the task Exited, and hands control onward through exit; the
// goroutine then returns and its stack is reclaimed.
func (t *Task) Start(runCtx context.Context, exit func(*Task)) {
	go func() {
		t.ctx.Park()
		if entry := t.TakeEntry(); entry != nil {
			t.SetResult(entry(runCtx))
		}
		if t.State() != StateRunning {
			panic(fmt.Sprintf("task: %d finished in state %s", t.id, t.State()))
		}
		t.SetState(StateExited)
		exit(t)
	}()
}
