package percpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coresched/internal/task"
)

func TestSlotGetReplace(t *testing.T) {
	var s Slot
	require.Nil(t, s.Get())

	a := task.NewIdle(0, 0)
	b := task.New(2, "b", 0, 0, nil)

	require.Nil(t, s.Replace(a))
	require.Same(t, a, s.Get())
	require.Same(t, a, s.Replace(b))
	require.Same(t, b, s.Get())
}

func TestStatePerCPUCells(t *testing.T) {
	s := New(2)
	require.Equal(t, 2, s.Count())

	idle0 := task.NewIdle(0, 0)
	idle1 := task.NewIdle(1, 1)
	s.SetIdle(0, idle0)
	s.SetIdle(1, idle1)
	s.SetCurrent(0, idle0)
	s.SetCurrent(1, idle1)

	require.Same(t, idle0, s.Idle(0))
	require.Same(t, idle1, s.Idle(1))
	require.Same(t, idle0, s.Current(0))

	worker := task.New(3, "w", 0, 1, nil)
	s.SetCurrent(1, worker)
	require.Same(t, worker, s.Current(1))
	require.Same(t, idle1, s.Idle(1)) // idle slot untouched
	require.Same(t, idle0, s.Current(0))
}
