package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coresched/internal/task"
)

func TestManagerEmptyQueueIsNil(t *testing.T) {
	m := NewManager(2)
	require.Nil(t, m.PickNextTask(0))
	require.Nil(t, m.PickNextTask(1))
	require.Equal(t, 0, m.Len(0))
}

func TestManagerFIFOOrder(t *testing.T) {
	m := NewManager(1)
	a := task.New(10, "a", 0, 0, nil)
	b := task.New(11, "b", 0, 0, nil)
	c := task.New(12, "c", 0, 0, nil)

	m.PutPrevTask(a, false)
	m.PutPrevTask(b, true)
	m.PutPrevTask(c, false)
	require.Equal(t, 3, m.Len(0))

	require.Same(t, a, m.PickNextTask(0))
	require.Same(t, b, m.PickNextTask(0))
	require.Same(t, c, m.PickNextTask(0))
	require.Nil(t, m.PickNextTask(0))
}

func TestManagerRoutesToHomeCPU(t *testing.T) {
	m := NewManager(2)
	even := task.New(4, "even", 0, 0, nil)
	odd := task.New(5, "odd", 0, 1, nil)

	m.PutPrevTask(even, false)
	m.PutPrevTask(odd, false)

	require.Equal(t, 1, m.Len(0))
	require.Equal(t, 1, m.Len(1))
	require.Same(t, even, m.PickNextTask(0))
	require.Same(t, odd, m.PickNextTask(1))
}
