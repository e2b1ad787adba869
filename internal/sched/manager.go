package sched

import (
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"coresched/internal/task"
)

// readyQueue is one CPU's FIFO of ready tasks. The mutex stands in for
// disabling local interrupts around the critical section.
type readyQueue struct {
	mu sync.Mutex
	q  *linkedlistqueue.Queue
}

// Manager holds the per-CPU ready queues. A task's home CPU is fixed at
// creation (id mod cpu count); there is no migration and no balancing, so an
// unevenly loaded CPU cannot offload to an idle one.
type Manager struct {
	queues []readyQueue
}

func NewManager(cpus int) *Manager {
	m := &Manager{queues: make([]readyQueue, cpus)}
	for i := range m.queues {
		m.queues[i].q = linkedlistqueue.New()
	}
	return m
}

// PickNextTask pops the head of the CPU's queue. An empty queue is normal and
// yields nil; callers fall back to the idle task.
func (m *Manager) PickNextTask(cpu int) *task.Task {
	rq := &m.queues[cpu]
	rq.mu.Lock()
	defer rq.mu.Unlock()
	v, ok := rq.q.Dequeue()
	if !ok {
		return nil
	}
	return v.(*task.Task)
}

// PutPrevTask appends the task to the tail of its home CPU's queue. The
// preempt flag is accepted for interface parity; FIFO ordering ignores it.
func (m *Manager) PutPrevTask(t *task.Task, preempt bool) {
	_ = preempt
	rq := &m.queues[t.HomeCPU()]
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.q.Enqueue(t)
}

// Len reports the number of ready tasks queued for the CPU.
func (m *Manager) Len(cpu int) int {
	rq := &m.queues[cpu]
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.q.Size()
}
