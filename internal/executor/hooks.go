package executor

import (
	"github.com/pirateninja/peyote/internal/loader"
)

// Hook names, exported spelling first.
var (
	setupNames = []string{"Setup", "setup"}
	drawNames  = []string{"Draw", "draw"}
)

// Hooks holds the setup and draw functions of a main module. Either may be
// nil. They are resolved once per load and reused on every tick.
type Hooks struct {
	Setup loader.Func
	Draw  loader.Func
}

// HasSetup reports whether the module defines a setup hook.
func (h Hooks) HasSetup() bool { return h.Setup != nil }

// HasDraw reports whether the module defines a draw hook.
func (h Hooks) HasDraw() bool { return h.Draw != nil }

func (h Hooks) String() string {
	s := "NoSetup"
	if h.HasSetup() {
		s = "HasSetup"
	}
	if h.HasDraw() {
		return s + "+HasDraw"
	}
	return s + "+NoDraw"
}

// ProbeHooks resolves the hooks of mod through l.
func ProbeHooks(l Loader, mod *loader.Module) Hooks {
	return Hooks{
		Setup: resolve(l, mod, setupNames),
		Draw:  resolve(l, mod, drawNames),
	}
}

func resolve(l Loader, mod *loader.Module, names []string) loader.Func {
	for _, name := range names {
		if fn := l.Function(mod, name); fn != nil {
			return fn
		}
	}
	return nil
}
