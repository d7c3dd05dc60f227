package eventloop

import "time"

// Manual is a Scheduler driven by explicit Fire calls instead of wall-clock
// time. It makes tick sequences deterministic for tests and frame-exact
// export.
type Manual struct {
	timers []*manualTimer
}

// NewManual creates an empty Manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Every registers fn. The period is recorded but not used.
func (m *Manual) Every(period time.Duration, fn func()) Timer {
	t := &manualTimer{period: period, fn: fn, active: true}
	m.timers = append(m.timers, t)
	return t
}

// Fire runs every active timer once, in registration order, and returns the
// number of callbacks invoked. A timer stopped by an earlier callback in the
// same round is skipped.
func (m *Manual) Fire() int {
	timers := append([]*manualTimer(nil), m.timers...)
	n := 0
	for _, t := range timers {
		if !t.active {
			continue
		}
		t.fn()
		n++
	}
	m.prune()
	return n
}

// Active returns the number of timers that have not been stopped.
func (m *Manual) Active() int {
	n := 0
	for _, t := range m.timers {
		if t.active {
			n++
		}
	}
	return n
}

// Periods returns the periods of the active timers in registration order.
func (m *Manual) Periods() []time.Duration {
	var out []time.Duration
	for _, t := range m.timers {
		if t.active {
			out = append(out, t.period)
		}
	}
	return out
}

func (m *Manual) prune() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if t.active {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}

type manualTimer struct {
	period time.Duration
	fn     func()
	active bool
}

func (t *manualTimer) Stop() {
	t.active = false
}
