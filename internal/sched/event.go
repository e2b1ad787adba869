// internal/sched/event.go

package sched

import (
	"sync"
	"time"

	"coresched/internal/task"
)

// EventKind represents the type of scheduler event.
type EventKind int

const (
	EventSpawn EventKind = iota
	EventDispatch
	EventYield
	EventSleep
	EventWake
	EventExit
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventSpawn:
		return "Spawn"
	case EventDispatch:
		return "Dispatch"
	case EventYield:
		return "Yield"
	case EventSleep:
		return "Sleep"
	case EventWake:
		return "Wake"
	case EventExit:
		return "Exit"
	case EventTick:
		return "Tick"
	default:
		return "Unknown"
	}
}

// Event is emitted every tick and on key scheduling actions.
type Event struct {
	Time time.Time
	Kind EventKind
	Task task.ID
	CPU  int
	Tick int64
}

// EventSink fans scheduler events out to an optional consumer. Emission never
// blocks the scheduler: once the buffer is full, events are dropped, and an
// emit racing Close is dropped rather than hitting a closed channel.
type EventSink struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Event
}

func NewEventSink(buffer int) *EventSink {
	return &EventSink{ch: make(chan Event, buffer)}
}

func (s *EventSink) Emit(ev Event) {
	ev.Time = time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// C exposes the read-only stream.
func (s *EventSink) C() <-chan Event {
	return s.ch
}

// Close ends the stream. Late emitters see the closed flag and drop their
// events; buffered ones remain readable.
func (s *EventSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
