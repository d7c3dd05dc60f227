package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T, l *Loop) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

func TestLoop_RunsCallbacksInOrder(t *testing.T) {
	t.Parallel()

	l := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { order = append(order, i) })
	}

	assert.Equal(t, 5, l.RunPending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, l.RunPending())
}

func TestLoop_TryPostWhenFull(t *testing.T) {
	t.Parallel()

	l := NewWithSize(1)
	assert.True(t, l.TryPost(func() {}))
	assert.False(t, l.TryPost(func() {}))
	assert.Equal(t, 1, l.RunPending())
}

func TestLoop_DoWaitsForCompletion(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := runLoop(t, l)

	ran := false
	require.NoError(t, l.Do(ctx, func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_DoHonoursCancellation(t *testing.T) {
	t.Parallel()

	l := NewWithSize(1)
	l.Post(func() {}) // fill the queue; nothing drains it

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimer_TicksOnLoop(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := runLoop(t, l)

	n := 0
	var timer Timer
	require.NoError(t, l.Do(ctx, func() {
		timer = l.Every(time.Millisecond, func() { n++ })
	}))

	require.Eventually(t, func() bool {
		var got int
		_ = l.Do(ctx, func() { got = n })
		return got >= 3
	}, 5*time.Second, 2*time.Millisecond)

	var stoppedAt int
	require.NoError(t, l.Do(ctx, func() {
		timer.Stop()
		stoppedAt = n
	}))

	time.Sleep(20 * time.Millisecond)

	var after int
	require.NoError(t, l.Do(ctx, func() { after = n }))
	assert.Equal(t, stoppedAt, after, "no tick may run after Stop returns")
}

func TestTimer_QueuedTicksDroppedAfterStop(t *testing.T) {
	t.Parallel()

	l := New()
	n := 0
	timer := l.Every(time.Millisecond, func() { n++ })

	require.Eventually(t, func() bool { return len(l.queue) > 0 }, 5*time.Second, time.Millisecond)

	timer.Stop()
	timer.Stop()
	l.RunPending()

	assert.Equal(t, 0, n)
}

func TestManual_Fire(t *testing.T) {
	t.Parallel()

	m := NewManual()
	var calls []string

	a := m.Every(16*time.Millisecond, func() { calls = append(calls, "a") })
	m.Every(time.Second, func() { calls = append(calls, "b") })

	assert.Equal(t, 2, m.Fire())
	assert.Equal(t, []time.Duration{16 * time.Millisecond, time.Second}, m.Periods())

	a.Stop()
	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, []string{"a", "b", "b"}, calls)
	assert.Equal(t, 1, m.Active())
}

func TestManual_StopDuringRound(t *testing.T) {
	t.Parallel()

	m := NewManual()
	var second Timer
	n := 0

	m.Every(0, func() { second.Stop() })
	second = m.Every(0, func() { n++ })

	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, m.Active())
}
