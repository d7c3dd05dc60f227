package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextWithTestDeadline_HasDeadline(t *testing.T) {
	tests := []struct {
		name     string
		fallback time.Duration
		buffer   time.Duration
	}{
		{"default buffer", 100 * time.Millisecond, DefaultTestBuffer},
		{"small buffer", 200 * time.Millisecond, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := ContextWithTestDeadlineBuffer(t, tt.fallback, tt.buffer)
			defer cancel()

			// Either the test deadline or the fallback applies.
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.Greater(t, time.Until(deadline), time.Duration(0))
		})
	}
}

func TestRunContext(t *testing.T) {
	ctx, cancel := RunContext(t)

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.LessOrEqual(t, time.Until(deadline), DefaultRunTimeout)

	select {
	case <-ctx.Done():
		t.Fatal("context done before cancel")
	default:
	}
	cancel()
	<-ctx.Done()
}
