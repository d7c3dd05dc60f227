// Package executor runs one sketch at a time: it persists and loads the
// sketch modules, calls setup once, then calls draw on a fixed-period timer
// until the sketch is stopped or a draw call faults.
//
// All methods, and the timer callbacks they schedule, must run on the same
// event loop goroutine. No locking is done.
package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pirateninja/peyote/internal/capture"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/framebuffer"
	"github.com/pirateninja/peyote/internal/loader"
	"github.com/pirateninja/peyote/internal/logging"
)

const (
	DefaultDrawPeriod = 16 * time.Millisecond
	DefaultRefreshFPS = 60
)

// Store persists sketch sources. *project.Store implements it.
type Store interface {
	SaveAll(modules map[string]string) (map[string]string, error)
	Dir() string
}

// Loader loads persisted modules. *loader.Loader implements it.
type Loader interface {
	LoadPackage(dir string, files []string) map[string]*loader.Module
	Function(mod *loader.Module, name string) loader.Func
	Failures() []*loader.LoadError
	UnloadAll()
}

// Display shows the surface sketches draw into.
type Display interface {
	StartRefresh(fps int)
	StopRefresh()
	Surface() *framebuffer.Surface
}

// Options wires an Executor to its collaborators.
type Options struct {
	Store     Store
	Loader    Loader
	Display   Display
	Scheduler eventloop.Scheduler
	// Streams are the writers the loader bound as the sketch's stdout and
	// stderr. Nil disables output capture.
	Streams *capture.Streams
	// Console receives captured output and fault reports.
	Console func(text string)
	// OnStart is called as each session begins, before its modules load.
	OnStart func()
	// OnFrame is called after every successful draw with the new frame
	// count.
	OnFrame    func(frame int)
	DrawPeriod time.Duration
	RefreshFPS int
}

// State is the lifecycle state of an Executor.
type State int

const (
	Idle State = iota
	Loading
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session describes the current or most recent run.
type Session struct {
	ID      string
	Main    string
	State   State
	Frames  int
	Period  time.Duration
	Started time.Time
}

// Executor owns at most one running sketch.
type Executor struct {
	opts Options
	log  *logging.Logger

	state   State
	hooks   Hooks
	main    *loader.Module
	loaded  bool
	timer   eventloop.Timer
	frames  int
	session Session
}

// New creates an idle Executor.
func New(opts Options) *Executor {
	if opts.DrawPeriod <= 0 {
		opts.DrawPeriod = DefaultDrawPeriod
	}
	if opts.RefreshFPS <= 0 {
		opts.RefreshFPS = DefaultRefreshFPS
	}
	return &Executor{
		opts: opts,
		log:  logging.With("component", "executor"),
	}
}

// State returns the lifecycle state.
func (e *Executor) State() State {
	return e.state
}

// Running reports whether a draw timer is active.
func (e *Executor) Running() bool {
	return e.state == Running
}

// FrameCount returns the number of successful draw calls this session.
func (e *Executor) FrameCount() int {
	return e.frames
}

// Hooks returns the hooks resolved for the current session.
func (e *Executor) Hooks() Hooks {
	return e.hooks
}

// Session returns a snapshot of the current or most recent session. For a
// stopped session Frames is the count reached before it stopped.
func (e *Executor) Session() Session {
	s := e.session
	s.State = e.state
	if e.state == Running {
		s.Frames = e.frames
	}
	return s
}

// LoadAndRun stops any running sketch, saves modules to the store, loads
// them and starts the sketch whose basename is mainName. Faults raised by
// setup are reported and do not prevent draw from starting. A main module
// without a draw hook runs setup only and leaves the executor idle.
//
// The returned error is a *ResolutionError when the main module did not
// load, or a wrapped store error. Errors never leave a timer running.
func (e *Executor) LoadAndRun(modules map[string]string, mainName string) error {
	e.Stop()
	e.release()

	mainName = strings.TrimSuffix(mainName, loader.SourceExt)
	e.state = Loading
	e.session = Session{
		ID:      uuid.New().String(),
		Main:    mainName,
		Period:  e.opts.DrawPeriod,
		Started: time.Now(),
	}
	log := e.log.With("session", e.session.ID)
	if e.opts.OnStart != nil {
		e.opts.OnStart()
	}

	if _, err := e.opts.Store.SaveAll(modules); err != nil {
		e.state = Idle
		log.Error("Failed to save sketch", "error", err)
		e.console(fmt.Sprintf("Error loading sketch:\n%v\n", err))
		return fmt.Errorf("failed to save sketch: %w", err)
	}

	e.loaded = true
	loaded := e.opts.Loader.LoadPackage(e.opts.Store.Dir(), loadOrder(modules, mainName))
	for _, le := range e.opts.Loader.Failures() {
		e.console(fmt.Sprintf("Error loading module %s:\n%v\n", le.Name, le.Err))
	}

	mod, ok := loaded[mainName]
	if !ok {
		err := &ResolutionError{Module: mainName, Package: e.opts.Store.Dir()}
		log.Error("Main module not found", "module", mainName)
		e.console(fmt.Sprintf("Error: Main module '%s' not found in loaded modules\n", mainName))
		e.release()
		e.state = Idle
		return err
	}
	e.main = mod
	e.hooks = ProbeHooks(e.opts.Loader, mod)
	log.Debug("Resolved hooks", "module", mod.Name, "hooks", e.hooks)

	if e.hooks.HasSetup() {
		res := e.call(SetupFault, e.hooks.Setup)
		switch res.Kind {
		case Ok:
			log.Info("Executed setup()")
		case SetupFault:
			log.Error("Error in setup()", "error", res.Fault.Message)
			e.console(fmt.Sprintf("Error in setup():\n%s\n", res.Fault))
		}
	} else {
		log.Warn("No setup() function found in main module")
	}

	if !e.hooks.HasDraw() {
		e.state = Idle
		log.Warn("No draw() function found in main module")
		e.console("Warning: No draw() function found\n")
		return nil
	}

	e.state = Running
	e.frames = 0
	e.opts.Display.StartRefresh(e.opts.RefreshFPS)
	e.timer = e.opts.Scheduler.Every(e.opts.DrawPeriod, e.tick)
	log.Info("Started draw() loop", "period", e.opts.DrawPeriod)
	return nil
}

// Stop ends the running session: the draw timer and display refresh stop,
// the surface is cleared and every module is unloaded. No draw call for the
// session happens after Stop returns. Stop is a no-op when nothing runs.
func (e *Executor) Stop() {
	if e.state != Running {
		return
	}

	e.state = Idle
	e.session.Frames = e.frames
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.opts.Display.StopRefresh()
	e.opts.Display.Surface().Clear(framebuffer.DefaultClearColor)
	e.release()

	e.log.Info("Sketch stopped", "session", e.session.ID)
}

// Close stops the session and unloads modules a setup-only sketch left
// loaded. The executor can be reused afterwards.
func (e *Executor) Close() {
	e.Stop()
	e.release()
}

// release unloads the sketch modules and drops the resolved hooks.
func (e *Executor) release() {
	if !e.loaded {
		return
	}
	e.opts.Loader.UnloadAll()
	e.loaded = false
	e.main = nil
	e.hooks = Hooks{}
	e.frames = 0
}

func (e *Executor) tick() {
	if e.state != Running || !e.hooks.HasDraw() {
		return
	}

	res := e.call(DrawFault, e.hooks.Draw)
	switch res.Kind {
	case Ok:
		if e.state != Running {
			// draw stopped the session itself
			return
		}
		e.frames++
		if e.opts.OnFrame != nil {
			e.opts.OnFrame(e.frames)
		}
	case DrawFault:
		e.log.Error("Error in draw()", "session", e.session.ID, "frame", e.frames, "error", res.Fault.Message)
		e.console(fmt.Sprintf("Error in draw():\n%s\n", res.Fault))
		e.Stop()
	}
}

// call runs fn with output capture and forwards captured text to the
// console. faultKind is the result kind used when fn fails.
func (e *Executor) call(faultKind Kind, fn loader.Func) Result {
	var out capture.Output
	var fault *Fault
	if e.opts.Streams != nil {
		e.opts.Streams.Capture(&out, func() { fault = invoke(fn) })
	} else {
		fault = invoke(fn)
	}

	if out.Stdout != "" {
		e.console(out.Stdout)
	}
	if out.Stderr != "" {
		e.console(out.Stderr)
	}

	if fault != nil {
		return Result{Kind: faultKind, Fault: fault, Output: out}
	}
	return Result{Kind: Ok, Output: out}
}

func (e *Executor) console(text string) {
	if e.opts.Console != nil {
		e.opts.Console(text)
	}
}

// loadOrder returns module file names sorted, with mainName last so helper
// modules are defined before it initializes.
func loadOrder(modules map[string]string, mainName string) []string {
	files := make([]string, 0, len(modules))
	hasMain := false
	for name := range modules {
		base := strings.TrimSuffix(name, loader.SourceExt)
		if base == mainName {
			hasMain = true
			continue
		}
		files = append(files, base+loader.SourceExt)
	}
	sort.Strings(files)
	if hasMain {
		files = append(files, mainName+loader.SourceExt)
	}
	return files
}
