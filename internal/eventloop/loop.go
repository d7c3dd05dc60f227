// Package eventloop runs callbacks on a single goroutine.
//
// Everything that touches sketch state (loading, stopping, draw ticks and
// display repaints) is posted to one Loop, so those callbacks never run
// concurrently and need no locks. A callback that blocks stalls the whole
// loop; there is no preemption.
package eventloop

import (
	"context"
	"sync"
	"time"
)

// DefaultQueueSize is the capacity of the callback queue.
const DefaultQueueSize = 64

// Timer is a periodic callback registration.
type Timer interface {
	// Stop cancels the timer. Once Stop returns the callback is never
	// invoked again, including ticks that were already queued.
	Stop()
}

// Scheduler creates periodic timers whose callbacks run on the loop.
type Scheduler interface {
	Every(period time.Duration, fn func()) Timer
}

// Loop is a FIFO of callbacks drained by one goroutine.
type Loop struct {
	queue chan func()
}

// New creates a Loop with the default queue size.
func New() *Loop {
	return NewWithSize(DefaultQueueSize)
}

// NewWithSize creates a Loop whose queue holds size callbacks.
func NewWithSize(size int) *Loop {
	if size < 1 {
		size = 1
	}
	return &Loop{queue: make(chan func(), size)}
}

// Post enqueues fn, blocking while the queue is full.
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// TryPost enqueues fn unless the queue is full.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	default:
		return false
	}
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from a loop callback.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.queue <- func() { defer close(done); fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// RunPending runs the callbacks queued at the time of the call without
// blocking and returns how many ran. Callbacks posted while draining wait
// for the next call.
func (l *Loop) RunPending() int {
	n := len(l.queue)
	for i := 0; i < n; i++ {
		select {
		case fn := <-l.queue:
			fn()
		default:
			return i
		}
	}
	return n
}

// Every starts a timer that posts fn to the loop once per period. Ticks are
// dropped while the queue is full, like a time.Ticker with a slow reader.
// Every and Stop must be called from the loop goroutine, or before Run
// starts.
func (l *Loop) Every(period time.Duration, fn func()) Timer {
	t := &loopTimer{
		loop:   l,
		fn:     fn,
		active: true,
		stop:   make(chan struct{}),
	}
	go t.run(period)
	return t
}

type loopTimer struct {
	loop *Loop
	fn   func()
	// active is only read and written on the loop goroutine.
	active bool
	stop   chan struct{}
	once   sync.Once
}

func (t *loopTimer) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.loop.TryPost(t.fire)
		}
	}
}

func (t *loopTimer) fire() {
	if t.active {
		t.fn()
	}
}

func (t *loopTimer) Stop() {
	t.active = false
	t.once.Do(func() { close(t.stop) })
}
