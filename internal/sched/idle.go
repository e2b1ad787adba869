package sched

import (
	"context"
)

// RunCPU drives one logical CPU until ctx is cancelled and its queue drains.
// The calling goroutine adopts the CPU's idle task context: it is the
// fallback whenever the ready queue is empty, and the implicit previous
// context that every dispatched task eventually switches back into. Tasks
// still parked when the loop exits are abandoned with the CPU, as on
// power-off.
func (s *Sched) RunCPU(ctx context.Context, cpu int) error {
	idle := s.cpus.Idle(cpu)
	for {
		next := s.rq.PickNextTask(cpu)
		if next == nil {
			if ctx.Err() != nil {
				s.log.Debug().Int("cpu", cpu).Msg("cpu halted")
				return nil
			}
			// Nothing ready: halt until the next timer tick or kick.
			s.intr.Wait(cpu, ctx.Done())
			continue
		}
		// Returns when the CPU next goes idle and some task switches back.
		s.switchTo(idle, next, false)
	}
}
