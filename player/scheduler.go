package player

import "time"

// Scheduler provides wall-clock time and one-shot timers whose callbacks run
// on the loop
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) (stop func())
}

type loopScheduler struct {
	loop *Loop
}

// NewLoopScheduler returns a Scheduler backed by real timers that post their
// callbacks to loop. A callback may still run after stop if its timer fired
// just before; callers guard with their own generation counters
func NewLoopScheduler(loop *Loop) Scheduler {
	return &loopScheduler{loop: loop}
}

func (s *loopScheduler) Now() time.Time {
	return time.Now()
}

func (s *loopScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() {
		s.loop.Post(fn)
	})
	return func() { t.Stop() }
}
