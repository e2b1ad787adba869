// Package coresched is a cooperative multi-queue task scheduler modeling a
// multi-core kernel's task subsystem: per-CPU ready queues and current-task
// tracking, a global timer wheel for sleep wakeups, and a spawn/sleep/yield/
// join API. Tasks run as goroutine-backed green threads that hand control to
// each other through synchronous switch points; the periodic tick only wakes
// sleepers and never preempts a running task.
package coresched

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"coresched/internal/platform"
	"coresched/internal/sched"
)

// TaskID identifies a task.
type TaskID uint64

// Event is a scheduler lifecycle event; see Kernel.Events.
type Event = sched.Event

// EventKind represents the type of scheduler event.
type EventKind = sched.EventKind

const (
	EventSpawn    = sched.EventSpawn
	EventDispatch = sched.EventDispatch
	EventYield    = sched.EventYield
	EventSleep    = sched.EventSleep
	EventWake     = sched.EventWake
	EventExit     = sched.EventExit
	EventTick     = sched.EventTick
)

// Kernel owns the scheduling core and its platform collaborators: the
// monotonic clock, the periodic tick driver, and one executor per logical
// CPU.
type Kernel struct {
	cfg    Config
	log    zerolog.Logger
	ticks  *platform.TickClock
	events *sched.EventSink
	sched  *sched.Sched

	mu      sync.Mutex
	started atomic.Bool
	stopped atomic.Bool
	cancel  context.CancelFunc
	runCtx  context.Context
	done    chan struct{}
}

// New builds a kernel: per-CPU state with permanent idle tasks, ready queues,
// and the timer wheel. No CPU runs until Start.
func New(cfg Config) *Kernel {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	events := sched.NewEventSink(cfg.EventBuffer)
	return &Kernel{
		cfg:    cfg,
		log:    log,
		ticks:  platform.NewTickClock(),
		events: events,
		sched:  sched.New(cfg.CPUs, platform.NewClock(), events, log),
		done:   make(chan struct{}),
	}
}

// Start launches one executor per logical CPU and the periodic tick driving
// sleep wakeups. Starting twice is an error.
func (k *Kernel) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started.Load() {
		return errors.New("coresched: kernel already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	k.runCtx, k.cancel = runCtx, cancel

	var g errgroup.Group
	for cpu := 0; cpu < k.sched.CPUCount(); cpu++ {
		g.Go(func() error {
			return k.sched.RunCPU(runCtx, cpu)
		})
	}
	go func() {
		_ = g.Wait()
		close(k.done)
	}()

	k.ticks.Start(time.Duration(k.cfg.TickMS)*time.Millisecond, k.sched.OnTimerTick)
	k.started.Store(true)
	k.log.Info().
		Int("cpus", k.sched.CPUCount()).
		Int("tick_ms", k.cfg.TickMS).
		Msg("scheduler started")
	return nil
}

// Shutdown stops the tick, cancels the executors, and waits for every CPU to
// halt. Tasks still parked at that point are abandoned with their CPUs, as
// on power-off. timeout <= 0 waits forever.
func (k *Kernel) Shutdown(timeout time.Duration) error {
	if !k.started.Load() {
		return errors.New("coresched: kernel not started")
	}
	if !k.stopped.CompareAndSwap(false, true) {
		return errors.New("coresched: kernel already shut down")
	}

	k.ticks.Stop()
	k.cancel()
	if err := waitUntil(k.done, timeout); err != nil {
		return err
	}
	k.events.Close()
	k.log.Info().Msg("scheduler stopped")
	return nil
}

// Events exposes the read-only scheduler event stream (optional consumers).
// The stream is lossy under backpressure and closes on Shutdown.
func (k *Kernel) Events() <-chan Event {
	return k.events.C()
}

// Ticks returns the number of timer ticks serviced so far.
func (k *Kernel) Ticks() int64 {
	return k.ticks.Count()
}

// OnTimerTick runs one timer-interrupt cycle by hand: wake due sleepers,
// then kick idling CPUs with ready work. The tick clock calls this
// periodically; it is exported for interrupt-exit paths and tests.
func (k *Kernel) OnTimerTick() {
	k.sched.OnTimerTick(k.ticks.Count())
}

// Schedule kicks idling CPUs that have ready work, without touching timers.
func (k *Kernel) Schedule() {
	k.sched.Schedule()
}

// waitUntil blocks until done closes or the timeout elapses.
func waitUntil(done <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("coresched: shutdown timed out")
	}
}
