package platform

// IntrLines models the per-CPU interrupt line. Wait is the wait-for-interrupt
// primitive; Kick raises the line. A kick while no one waits stays pending in
// the one-slot channel, and further kicks coalesce with it, so a CPU halting
// right after a kick still wakes.
type IntrLines struct {
	lines []chan struct{}
}

func NewIntrLines(n int) *IntrLines {
	l := &IntrLines{lines: make([]chan struct{}, n)}
	for i := range l.lines {
		l.lines[i] = make(chan struct{}, 1)
	}
	return l
}

// Wait blocks until the CPU's line is raised or cancel fires.
func (l *IntrLines) Wait(cpu int, cancel <-chan struct{}) {
	select {
	case <-l.lines[cpu]:
	case <-cancel:
	}
}

// Kick raises the CPU's line without blocking.
func (l *IntrLines) Kick(cpu int) {
	select {
	case l.lines[cpu] <- struct{}{}:
	default:
	}
}

// KickAll raises every line.
func (l *IntrLines) KickAll() {
	for cpu := range l.lines {
		l.Kick(cpu)
	}
}
