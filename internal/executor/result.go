package executor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/pirateninja/peyote/internal/capture"
	"github.com/pirateninja/peyote/internal/loader"
)

// Kind classifies the outcome of one hook call.
type Kind int

const (
	Ok Kind = iota
	SetupFault
	DrawFault
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case SetupFault:
		return "setup fault"
	case DrawFault:
		return "draw fault"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fault describes an error returned or a panic raised by sketch code.
type Fault struct {
	Kind    string // "panic" or the Go type of the returned error
	Message string
	Stack   string
}

// String formats the fault the way it is shown on the console.
func (f *Fault) String() string {
	var b strings.Builder
	b.WriteString(f.Kind)
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.Stack != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(f.Stack, "\n"))
	}
	return b.String()
}

// Result is the outcome of calling setup or draw.
type Result struct {
	Kind   Kind
	Fault  *Fault
	Output capture.Output
}

// ResolutionError reports that the main module is absent after loading.
type ResolutionError struct {
	Module  string
	Package string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("ModuleNotFoundError: main module '%s' not found in loaded modules of %s", e.Module, e.Package)
}

// IsResolutionError checks if an error is a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// invoke calls fn and converts a returned error or a panic into a Fault.
func invoke(fn loader.Func) (fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = &Fault{
				Kind:    "panic",
				Message: fmt.Sprint(r),
				Stack:   string(debug.Stack()),
			}
		}
	}()
	if err := fn(); err != nil {
		return &Fault{Kind: fmt.Sprintf("%T", err), Message: err.Error()}
	}
	return nil
}
