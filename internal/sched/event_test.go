package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventSinkDropsWhenFull(t *testing.T) {
	s := NewEventSink(1)
	s.Emit(Event{Kind: EventSpawn})
	s.Emit(Event{Kind: EventExit}) // buffer full, dropped

	ev := <-s.C()
	require.Equal(t, EventSpawn, ev.Kind)
	select {
	case ev := <-s.C():
		t.Fatalf("unexpected buffered event %s", ev.Kind)
	default:
	}
}

func TestEventSinkEmitAfterCloseIsDropped(t *testing.T) {
	s := NewEventSink(4)
	s.Emit(Event{Kind: EventSpawn})
	s.Close()

	require.NotPanics(t, func() { s.Emit(Event{Kind: EventExit}) })

	ev, ok := <-s.C()
	require.True(t, ok)
	require.Equal(t, EventSpawn, ev.Kind)
	_, ok = <-s.C()
	require.False(t, ok)
}

func TestEventSinkCloseRacingEmitters(t *testing.T) {
	s := NewEventSink(1)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.Emit(Event{Kind: EventTick})
			}
		}()
	}
	s.Close()
	wg.Wait()

	for range s.C() {
	}
}
