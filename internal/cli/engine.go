package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pirateninja/peyote/internal/capture"
	"github.com/pirateninja/peyote/internal/config"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/executor"
	"github.com/pirateninja/peyote/internal/gfx"
	"github.com/pirateninja/peyote/internal/loader"
	"github.com/pirateninja/peyote/internal/project"
	"github.com/traefik/yaegi/interp"
)

// engine is one fully wired sketch runtime.
type engine struct {
	store  *project.Store
	loader *loader.Loader
	canvas *gfx.Canvas
	exec   *executor.Executor
}

type engineOptions struct {
	Display   executor.Display
	Scheduler eventloop.Scheduler
	Console   io.Writer
	OnFrame   func(frame int)
}

func newEngine(cfg *config.Config, sketchesDir string, opts engineOptions) (*engine, error) {
	store, err := project.Open(sketchesDir, cfg.Executor.Project)
	if err != nil {
		return nil, err
	}

	console := opts.Console
	if console == nil {
		console = io.Discard
	}

	canvas := gfx.NewCanvas(opts.Display.Surface())
	streams := capture.NewStreams(console, console)
	ld := loader.New(loader.Options{
		Stdout:  streams.Stdout,
		Stderr:  streams.Stderr,
		Symbols: []interp.Exports{gfx.Symbols(canvas)},
	})

	exec := executor.New(executor.Options{
		Store:      store,
		Loader:     ld,
		Display:    opts.Display,
		Scheduler:  opts.Scheduler,
		Streams:    streams,
		Console:    func(text string) { fmt.Fprint(console, text) },
		OnStart:    canvas.Reset,
		OnFrame:    opts.OnFrame,
		DrawPeriod: cfg.Executor.DrawPeriod(),
		RefreshFPS: cfg.Display.RefreshFPS,
	})
	canvas.SetFrameSource(exec.FrameCount)

	return &engine{store: store, loader: ld, canvas: canvas, exec: exec}, nil
}

// readSketch returns the module sources at path keyed by basename. path is
// either a single source file or a directory of them; test files are
// skipped.
func readSketch(path string) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sketch: %w", err)
	}

	var files []string
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(path, "*"+loader.SourceExt))
		if err != nil {
			return nil, fmt.Errorf("failed to list sketch files: %w", err)
		}
		for _, m := range matches {
			if !strings.HasSuffix(m, "_test"+loader.SourceExt) {
				files = append(files, m)
			}
		}
	} else {
		files = []string{path}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", loader.SourceExt, path)
	}

	modules := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		modules[strings.TrimSuffix(filepath.Base(f), loader.SourceExt)] = string(data)
	}
	return modules, nil
}

// mainModule picks the module to run: the configured name if present, or
// the only module of a single-file sketch.
func mainModule(modules map[string]string, configured string) string {
	if _, ok := modules[configured]; ok || len(modules) != 1 {
		return configured
	}
	for name := range modules {
		return name
	}
	return configured
}
