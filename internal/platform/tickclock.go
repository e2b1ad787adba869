// internal/platform/tickclock.go

package platform

import (
	"sync"
	"sync/atomic"
	"time"
)

// TickClock drives the periodic timer interrupt. Each tick bumps the atomic
// count and invokes the handler on the clock goroutine.
type TickClock struct {
	count   atomic.Int64
	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewTickClock creates a clock but does not start it.
func NewTickClock() *TickClock {
	return &TickClock{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration, onTick func(tick int64)) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		defer close(c.done)
		for {
			select {
			case <-ticker.C:
				onTick(c.count.Add(1))
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop signals the clock to stop and waits for the tick goroutine to exit.
func (c *TickClock) Stop() {
	if !c.started.Load() {
		return
	}
	c.once.Do(func() { close(c.stop) })
	<-c.done
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
