package platform

import "time"

// Clock provides monotonic nanosecond time for deadline arithmetic.
type Clock interface {
	Now() uint64
}

// monotonicClock measures nanoseconds since its creation.
type monotonicClock struct {
	base time.Time
}

// NewClock returns the real monotonic clock.
func NewClock() Clock {
	return &monotonicClock{base: time.Now()}
}

func (c *monotonicClock) Now() uint64 {
	return uint64(time.Since(c.base))
}
