// Package console prints sketch output and executor reports to a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// DefaultWidth is used for the status line when the terminal size is
// unknown.
const DefaultWidth = 80

// Console writes console text to out. On a terminal, fault reports and
// warnings are colored and a status line can be redrawn in place.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	width   int
	pending bool // a status line is on screen
}

// New creates a Console, enabling color when out is a terminal.
func New(out io.Writer) *Console {
	c := &Console{out: out, width: DefaultWidth}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.color = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			c.width = w
		}
	}
	return c
}

// NewPlain creates a Console that never emits escape codes.
func NewPlain(out io.Writer) *Console {
	return &Console{out: out, width: DefaultWidth}
}

// Color reports whether escape codes are emitted.
func (c *Console) Color() bool {
	return c.color
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.Print(string(p))
	return len(p), nil
}

// Print writes one chunk of console text.
func (c *Console) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.color {
		c.clearStatus()
		if codes := textColor(text); codes != nil {
			// Keep the trailing newline outside the styled span.
			body := strings.TrimRight(text, "\n")
			text = Style(body, codes...) + text[len(body):]
		}
	}
	fmt.Fprint(c.out, text)
}

// Status redraws the one-line run summary. It does nothing unless color is
// enabled.
func (c *Console) Status(state string, frames int, session string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.color {
		return
	}
	fmt.Fprint(c.out, "\r"+StatusLine(state, frames, session, c.width)+ClearLine)
	c.pending = true
}

// Done ends a status line so later output starts on a fresh line.
func (c *Console) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		fmt.Fprint(c.out, "\n")
		c.pending = false
	}
}

func (c *Console) clearStatus() {
	if c.pending {
		fmt.Fprint(c.out, "\r"+ClearLine)
		c.pending = false
	}
}

// StatusLine renders "<state>  frame N  session <id>" fitted to width.
func StatusLine(state string, frames int, session string, width int) string {
	if len(session) > 8 {
		session = session[:8]
	}
	rest := fmt.Sprintf("  frame %d  session %s", frames, session)
	return FormatState(state) + PadOrTruncate(rest, width-len(state)-1)
}
