// Package capture redirects a sketch's standard streams into memory for the
// duration of a single call.
package capture

import (
	"bytes"
	"io"
	"sync"
)

// Switch is an io.Writer whose destination can be swapped at runtime.
// Interpreters hold a Switch for their lifetime; callers redirect it around
// individual calls.
type Switch struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSwitch creates a Switch writing to w. A nil w discards output.
func NewSwitch(w io.Writer) *Switch {
	if w == nil {
		w = io.Discard
	}
	return &Switch{w: w}
}

// Write forwards p to the current destination.
func (s *Switch) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Swap sets the destination to w and returns the previous one.
func (s *Switch) Swap(w io.Writer) io.Writer {
	if w == nil {
		w = io.Discard
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

// Streams pairs the stdout and stderr switches handed to an interpreter.
type Streams struct {
	Stdout *Switch
	Stderr *Switch
}

// NewStreams creates Streams writing to stdout and stderr between captures.
func NewStreams(stdout, stderr io.Writer) *Streams {
	return &Streams{
		Stdout: NewSwitch(stdout),
		Stderr: NewSwitch(stderr),
	}
}

// Output is the text written while a capture was active.
type Output struct {
	Stdout string
	Stderr string
}

// Empty reports whether nothing was written.
func (o Output) Empty() bool {
	return o.Stdout == "" && o.Stderr == ""
}

// Capture runs fn with both streams pointed at in-memory buffers and
// restores the previous destinations when fn returns or panics. The captured
// text is stored in out. A panic from fn is re-raised after restoring, and
// out still receives what fn wrote before panicking.
func (s *Streams) Capture(out *Output, fn func()) {
	var stdout, stderr bytes.Buffer
	prevOut := s.Stdout.Swap(&stdout)
	prevErr := s.Stderr.Swap(&stderr)
	defer func() {
		s.Stdout.Swap(prevOut)
		s.Stderr.Swap(prevErr)
		if out != nil {
			out.Stdout = stdout.String()
			out.Stderr = stderr.String()
		}
	}()
	fn()
}
