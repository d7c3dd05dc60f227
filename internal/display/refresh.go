package display

import "time"

// refresher decides when the window re-uploads surface pixels.
type refresher struct {
	active   bool
	interval time.Duration
	last     time.Time
	pending  bool
}

func (r *refresher) start(fps int) {
	if fps < 1 {
		fps = 1
	}
	r.active = true
	r.interval = time.Second / time.Duration(fps)
	r.last = time.Time{}
}

// stop halts periodic refresh but schedules one final repaint so the cleared
// surface becomes visible.
func (r *refresher) stop() {
	r.active = false
	r.pending = true
}

// due reports whether a repaint should happen at now and records it.
func (r *refresher) due(now time.Time) bool {
	if r.pending {
		r.pending = false
		r.last = now
		return true
	}
	if !r.active {
		return false
	}
	if !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return false
	}
	r.last = now
	return true
}
