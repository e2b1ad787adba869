package percpu

import (
	"sync/atomic"

	"coresched/internal/task"
)

// Slot owns a strong handle to a task and supports lock-free get/replace.
type Slot struct {
	p atomic.Pointer[task.Task]
}

func (s *Slot) Get() *task.Task {
	return s.p.Load()
}

// Replace installs t and returns the previous occupant.
func (s *Slot) Replace(t *task.Task) *task.Task {
	return s.p.Swap(t)
}

// cpuLocal is one logical CPU's private cell.
type cpuLocal struct {
	current Slot
	idle    Slot
}

// State is the fixed per-CPU array, indexed by a runtime-supplied logical CPU
// id. It stands in for the hardware thread-pointer register: O(1) lock-free
// access to the running task and the CPU's permanent idle task from any
// context, including the tick path.
type State struct {
	cpus []cpuLocal
}

func New(n int) *State {
	return &State{cpus: make([]cpuLocal, n)}
}

func (s *State) Count() int {
	return len(s.cpus)
}

// Current returns the task running on the CPU.
func (s *State) Current(cpu int) *task.Task {
	return s.cpus[cpu].current.Get()
}

// SetCurrent publishes the CPU's running task.
func (s *State) SetCurrent(cpu int, t *task.Task) {
	s.cpus[cpu].current.Replace(t)
}

// Idle returns the CPU's permanent idle task.
func (s *State) Idle(cpu int) *task.Task {
	return s.cpus[cpu].idle.Get()
}

// SetIdle installs the CPU's permanent idle task.
func (s *State) SetIdle(cpu int, t *task.Task) {
	s.cpus[cpu].idle.Replace(t)
}
