package coresched

import (
	"context"
	"errors"
	"runtime"
	"time"

	"coresched/internal/task"
)

var (
	// ErrNoKernel means the context carries no kernel; use a task context or
	// one produced by Kernel.Context.
	ErrNoKernel = errors.New("coresched: context carries no kernel")
	// ErrNotStarted means the kernel is not accepting tasks.
	ErrNotStarted = errors.New("coresched: kernel not started")
	// ErrNotTask means the call requires a task context.
	ErrNotTask = errors.New("coresched: not called from a task context")
	// ErrSelfJoin means a task tried to join itself, which would deadlock.
	ErrSelfJoin = errors.New("coresched: task cannot join itself")
	// ErrResultTaken means the one-shot result was already consumed.
	ErrResultTaken = errors.New("coresched: task result already taken")
	// ErrResultType means the stored result did not match the handle's type.
	// Unreachable through a correctly typed JoinHandle; defensive only.
	ErrResultType = errors.New("coresched: task result has unexpected type")
)

type ctxKey int

const (
	kernelKey ctxKey = iota
	taskKey
)

// Context returns a context carrying the kernel, for spawning from outside
// any task body. Task bodies receive such a context automatically.
func (k *Kernel) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, kernelKey, k)
}

func kernelFrom(ctx context.Context) *Kernel {
	k, _ := ctx.Value(kernelKey).(*Kernel)
	return k
}

func taskFrom(ctx context.Context) *task.Task {
	t, _ := ctx.Value(taskKey).(*task.Task)
	return t
}

// JoinHandle waits for a spawned task and carries its typed result. It holds
// a strong reference, so the record outlives the task for the joiner.
type JoinHandle[T any] struct {
	k *Kernel
	t *task.Task
}

// ID returns the task's id.
func (h *JoinHandle[T]) ID() TaskID {
	return TaskID(h.t.ID())
}

// Join blocks until the task exits, then consumes its one-shot result; it
// returns only after the task body has fully returned. Joining from inside
// another task spins via yield; joining from outside the scheduled world
// polls. A self-join would deadlock and errors immediately. ctx cancellation
// aborts the wait.
func (h *JoinHandle[T]) Join(ctx context.Context) (T, error) {
	var zero T
	cur := taskFrom(ctx)
	if cur != nil && cur.ID() == h.t.ID() {
		return zero, ErrSelfJoin
	}
	for h.t.State() != task.StateExited {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if cur != nil {
			h.k.sched.YieldCurrent(cur)
			runtime.Gosched()
		} else {
			time.Sleep(100 * time.Microsecond)
		}
	}
	v, ok := h.t.TakeResult()
	if !ok {
		return zero, ErrResultTaken
	}
	r, ok := v.(T)
	if !ok {
		return zero, ErrResultType
	}
	return r, nil
}

// Spawn creates a task running fn and makes it runnable on its home CPU
// (id mod cpu count, fixed for the task's lifetime). The kernel is resolved
// from ctx; a task spawning another becomes its parent.
func Spawn[T any](ctx context.Context, name string, fn func(context.Context) T) (*JoinHandle[T], error) {
	k := kernelFrom(ctx)
	if k == nil {
		return nil, ErrNoKernel
	}
	if !k.started.Load() || k.stopped.Load() {
		return nil, ErrNotStarted
	}

	parent := task.ID(0)
	cur := taskFrom(ctx)
	if cur != nil {
		parent = cur.ID()
	}

	id := k.sched.NextID()
	t := task.New(id, name, parent, k.sched.HomeCPU(id), func(rc context.Context) any {
		return fn(rc)
	})
	if cur != nil {
		cur.AddChild(id)
	}

	runCtx := context.WithValue(k.Context(k.runCtx), taskKey, t)
	t.Start(runCtx, k.sched.ExitCurrent)
	k.sched.Enqueue(t)
	return &JoinHandle[T]{k: k, t: t}, nil
}

// Sleep blocks the calling task until at least d has elapsed, as observed by
// the monotonic clock. A non-positive duration returns immediately. Must be
// called from inside a task body.
func Sleep(ctx context.Context, d time.Duration) error {
	t := taskFrom(ctx)
	if t == nil || t.IsIdle() {
		return ErrNotTask
	}
	k := kernelFrom(ctx)
	if k == nil {
		return ErrNoKernel
	}
	k.sched.SleepCurrent(t, d)
	return nil
}

// Yield requeues the calling task behind any ready work on its home CPU and
// switches away. With an otherwise-empty queue it is a no-op: the task keeps
// running and is not re-enqueued.
func Yield(ctx context.Context) error {
	t := taskFrom(ctx)
	if t == nil || t.IsIdle() {
		return ErrNotTask
	}
	k := kernelFrom(ctx)
	if k == nil {
		return ErrNoKernel
	}
	k.sched.YieldCurrent(t)
	return nil
}

// CurrentID reports the calling task's id; ok is false outside task context.
func CurrentID(ctx context.Context) (id TaskID, ok bool) {
	t := taskFrom(ctx)
	if t == nil {
		return 0, false
	}
	return TaskID(t.ID()), true
}
