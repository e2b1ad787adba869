package sched

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"coresched/internal/platform"
	"coresched/internal/task"
)

func newTestSched(cpus int) *Sched {
	return New(cpus, platform.NewClock(), NewEventSink(64), zerolog.Nop())
}

func TestRunCPUHaltsOnCancel(t *testing.T) {
	s := newTestSched(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunCPU(ctx, 0) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cpu never halted")
	}
}

func TestRunCPUDispatchesEnqueuedTask(t *testing.T) {
	s := newTestSched(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.RunCPU(ctx, 0) }()

	ran := make(chan struct{})
	id := s.NextID()
	tk := task.New(id, "worker", 0, s.HomeCPU(id), func(context.Context) any {
		close(ran)
		return nil
	})
	tk.Start(context.Background(), s.ExitCurrent)
	s.Enqueue(tk)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task was never dispatched")
	}
}
