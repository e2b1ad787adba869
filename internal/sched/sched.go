// Package sched is the multi-CPU scheduling core: per-CPU ready queues and
// current-task tracking, the global timer wheel, and the switch machinery
// that moves control between task contexts.
package sched

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"coresched/internal/percpu"
	"coresched/internal/platform"
	"coresched/internal/task"
)

// Sched coordinates tasks across the logical CPUs. Tasks are scheduled
// cooperatively: control changes hands only at yield, sleep and exit, and the
// periodic timer tick services sleep wakeups without ever preempting a
// running task.
type Sched struct {
	cpus   *percpu.State
	rq     *Manager
	wheel  *TimerWheel
	intr   *platform.IntrLines
	clock  platform.Clock
	events *EventSink
	log    zerolog.Logger

	nextID atomic.Uint64
}

// New builds the scheduling core and initializes every CPU with its permanent
// idle task. Idle tasks take ids 0..cpus-1; spawned tasks continue from
// there, keeping home CPU assignment (id mod cpus) aligned for both.
func New(cpus int, clock platform.Clock, events *EventSink, log zerolog.Logger) *Sched {
	s := &Sched{
		cpus:   percpu.New(cpus),
		rq:     NewManager(cpus),
		wheel:  NewTimerWheel(clock),
		intr:   platform.NewIntrLines(cpus),
		clock:  clock,
		events: events,
		log:    log,
	}
	s.nextID.Store(uint64(cpus))
	for cpu := 0; cpu < cpus; cpu++ {
		s.initCPU(cpu)
	}
	return s
}

// initCPU installs the CPU-local state, the per-CPU half of bring-up.
func (s *Sched) initCPU(cpu int) {
	idle := task.NewIdle(task.ID(cpu), cpu)
	s.cpus.SetIdle(cpu, idle)
	s.cpus.SetCurrent(cpu, idle)
	s.log.Debug().Int("cpu", cpu).Msg("cpu initialized")
}

func (s *Sched) CPUCount() int {
	return s.cpus.Count()
}

func (s *Sched) Clock() platform.Clock {
	return s.clock
}

// NextID allocates a task id.
func (s *Sched) NextID() task.ID {
	return task.ID(s.nextID.Add(1) - 1)
}

// HomeCPU maps a task id to the CPU that owns its ready-queue membership.
func (s *Sched) HomeCPU(id task.ID) int {
	return int(uint64(id) % uint64(s.cpus.Count()))
}

// Current returns the task running on the CPU.
func (s *Sched) Current(cpu int) *task.Task {
	return s.cpus.Current(cpu)
}

// ReadyLen reports the CPU's ready-queue depth.
func (s *Sched) ReadyLen(cpu int) int {
	return s.rq.Len(cpu)
}

// TimerLen reports the number of pending timer-wheel entries.
func (s *Sched) TimerLen() int {
	return s.wheel.Len()
}

// Enqueue makes a freshly spawned task runnable on its home CPU and kicks
// that CPU if it is idling.
func (s *Sched) Enqueue(t *task.Task) {
	s.rq.PutPrevTask(t, false)
	s.events.Emit(Event{Kind: EventSpawn, Task: t.ID(), CPU: t.HomeCPU()})
	s.log.Info().
		Uint64("id", uint64(t.ID())).
		Str("name", t.Name()).
		Uint64("parent", uint64(t.Parent())).
		Int("cpu", t.HomeCPU()).
		Msg("task created")
	s.kickIfIdle(t.HomeCPU())
}

// kickIfIdle raises the CPU's interrupt line when nothing but the idle task
// runs there, so the idle loop re-evaluates its queue promptly.
func (s *Sched) kickIfIdle(cpu int) {
	if cur := s.cpus.Current(cpu); cur == nil || cur.IsIdle() {
		s.intr.Kick(cpu)
	}
}

// switchTo marks next Running, publishes it as its CPU's current task, and
// transfers control. The current-task slot is updated before the low-level
// switch so an observer firing right after control lands in next already
// sees it. final marks the exit path: the switched-away context never parks
// and is never resumed.
func (s *Sched) switchTo(cur, next *task.Task, final bool) {
	if !next.IsIdle() {
		if !next.TrySetState(task.StateReady, task.StateRunning) {
			panic(fmt.Sprintf("sched: dispatching task %d in state %s", next.ID(), next.State()))
		}
	}
	s.cpus.SetCurrent(next.HomeCPU(), next)
	s.events.Emit(Event{Kind: EventDispatch, Task: next.ID(), CPU: next.HomeCPU()})
	if final {
		cur.Context().SwitchFinal(next.Context())
		return
	}
	cur.Context().SwitchTo(next.Context())
}

// scheduleOut switches away from a task that is no longer runnable, to the
// next ready task on its home CPU or to the idle task.
func (s *Sched) scheduleOut(t *task.Task, final bool) {
	next := s.rq.PickNextTask(t.HomeCPU())
	if next == nil {
		next = s.cpus.Idle(t.HomeCPU())
	}
	s.switchTo(t, next, final)
}

// YieldCurrent requeues the running task behind the ready work on its home
// CPU and switches to the head of the queue. With nothing else ready it
// returns immediately: the task stays Running and is not re-enqueued.
func (s *Sched) YieldCurrent(t *task.Task) {
	next := s.rq.PickNextTask(t.HomeCPU())
	if next == nil {
		return
	}
	t.SetState(task.StateReady)
	s.rq.PutPrevTask(t, false)
	s.events.Emit(Event{Kind: EventYield, Task: t.ID(), CPU: t.HomeCPU()})
	s.switchTo(t, next, false)
}

// SleepCurrent blocks the running task until the absolute deadline derived
// from d has passed. The Sleeping store happens before the wheel insert so
// the wakeup CAS can never observe a stale state; the timer tick is the only
// path that moves the task back to Ready.
func (s *Sched) SleepCurrent(t *task.Task, d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := s.clock.Now() + uint64(d)
	t.SetState(task.StateSleeping)
	if s.wheel.SetTimer(deadline, t) == nil {
		// Deadline no longer in the future; keep running.
		t.SetState(task.StateRunning)
		return
	}
	s.events.Emit(Event{Kind: EventSleep, Task: t.ID(), CPU: t.HomeCPU()})
	s.log.Trace().
		Uint64("id", uint64(t.ID())).
		Uint64("deadline", deadline).
		Msg("task sleeping")
	s.scheduleOut(t, false)
}

// ExitCurrent finishes a task whose trampoline has returned: control moves on
// without a requeue, the calling goroutine unwinds, and the record is
// reclaimed once the last strong handle drops.
func (s *Sched) ExitCurrent(t *task.Task) {
	if t.IsIdle() {
		panic("sched: idle task attempted to exit")
	}
	s.events.Emit(Event{Kind: EventExit, Task: t.ID(), CPU: t.HomeCPU()})
	s.log.Info().
		Uint64("id", uint64(t.ID())).
		Str("name", t.Name()).
		Msg("task exited")
	s.scheduleOut(t, true)
}

// wake requeues a task the timer wheel brought back to Ready.
func (s *Sched) wake(t *task.Task) {
	s.rq.PutPrevTask(t, false)
	s.events.Emit(Event{Kind: EventWake, Task: t.ID(), CPU: t.HomeCPU()})
	s.log.Debug().Uint64("id", uint64(t.ID())).Msg("task woken")
	s.kickIfIdle(t.HomeCPU())
}

// OnTimerTick is the periodic timer interrupt: it wakes due sleepers, then
// nudges idling CPUs that have ready work. Running tasks are never preempted;
// the tick only services sleep wakeups.
func (s *Sched) OnTimerTick(tick int64) {
	s.events.Emit(Event{Kind: EventTick, Tick: tick})
	s.wheel.CheckEvents(s.wake)
	s.Schedule()
}

// Schedule opportunistically kicks any CPU idling with ready work queued.
// The interrupt-exit path calls this after servicing a device interrupt so
// newly-ready work is picked up without waiting for the next halt cycle.
func (s *Sched) Schedule() {
	for cpu := 0; cpu < s.cpus.Count(); cpu++ {
		if s.rq.Len(cpu) > 0 {
			s.kickIfIdle(cpu)
		}
	}
}
