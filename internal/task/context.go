package task

// Context is the execution context of one task: a parked goroutine plus a
// one-slot resume channel standing in for the saved register file. Control
// moves between contexts by signaling the next one and parking the current
// one, so SwitchTo does not return until this context is resumed.
type Context struct {
	resume chan struct{}
}

func NewContext() *Context {
	return &Context{resume: make(chan struct{}, 1)}
}

// Park blocks until the context is resumed. The slot holds at most one
// pending resume, so a wakeup that races the park is not lost.
func (c *Context) Park() {
	<-c.resume
}

// Signal resumes the context. Two outstanding resumes mean two schedulers
// dispatched the same task, which is fatal.
func (c *Context) Signal() {
	select {
	case c.resume <- struct{}{}:
	default:
		panic("task: context resumed twice")
	}
}

// SwitchTo transfers control to next and parks until resumed. Callers must
// publish the new current task to the per-CPU slot before calling this, so
// anything that observes the CPU right after next starts running sees the
// correct current task.
func (c *Context) SwitchTo(next *Context) {
	next.Signal()
	c.Park()
}

// SwitchFinal is the exit half of a switch: it hands control to next without
// parking, letting the calling goroutine return and release its stack.
func (c *Context) SwitchFinal(next *Context) {
	next.Signal()
}
