// Package loader evaluates sketch source files in an embedded Go
// interpreter and manages their lifetime.
//
// Every module a Loader loads shares one interpreter. A module named
// "<package>.<basename>" is served to that interpreter as the import path
// "<package>/<basename>", so sibling modules import each other with an
// ordinary import declaration. Interpreted package scopes cannot be dropped
// piecemeal: unloading a single module discards the interpreter and replays
// the remaining modules from their recorded sources. Loading a name that is
// already registered unloads it first, which is what keeps state from one
// run out of the next.
//
// A Loader is not safe for concurrent use; drive it from the event loop.
package loader

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/pirateninja/peyote/internal/logging"
	"github.com/spf13/afero"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// SourceExt is the extension of sketch module files.
const SourceExt = ".go"

// BuildTag is satisfied for every module. Sketch files kept inside a Go
// module carry "//go:build peyote" so the go tool skips them.
const BuildTag = "peyote"

// sourceRoot is the GOPATH of every interpreter, inside the loader's
// in-memory source tree.
const sourceRoot = "_sketches"

// Func is a resolved top-level function. Functions declared as func() are
// adapted to always return nil.
type Func func() error

// Module is a loaded sketch source file.
type Module struct {
	Name    string // qualified name, "<package>.<basename>"
	Base    string // basename without extension
	Package string // identifier from the package clause
	Path    string
	source  string
	// importPath is "<package>/<basename>"; alias binds it in the
	// interpreter's top-level scope.
	importPath string
	alias      string
}

// ImportPath returns the path other modules use to import mod.
func (m *Module) ImportPath() string {
	return m.importPath
}

// LoadError reports a module that could not be read, parsed or initialized.
type LoadError struct {
	Name string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError checks if an error is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Options configures the interpreter a Loader creates.
type Options struct {
	// Stdout and Stderr receive output of interpreted code. Pass stable
	// writers such as capture.Switch; they are bound once per interpreter.
	Stdout io.Writer
	Stderr io.Writer
	// Symbols are extra packages sketches may import.
	Symbols []interp.Exports
}

// Loader loads sketch modules into a shared interpreter.
type Loader struct {
	opts      Options
	in        *interp.Interpreter
	sources   afero.Fs
	modules   map[string]*Module
	order     []string
	failures  []*LoadError
	pathEntry string
	addedPath bool
	log       *logging.Logger
}

// New creates a Loader. No interpreter exists until the first load.
func New(opts Options) *Loader {
	return &Loader{
		opts:    opts,
		sources: afero.NewMemMapFs(),
		modules: make(map[string]*Module),
		log:     logging.With("component", "loader"),
	}
}

func (l *Loader) newInterpreter() (*interp.Interpreter, error) {
	in := interp.New(interp.Options{
		GoPath:               sourceRoot,
		Stdout:               l.opts.Stdout,
		Stderr:               l.opts.Stderr,
		BuildTags:            []string{BuildTag},
		SourcecodeFilesystem: afero.NewIOFS(l.sources),
	})
	if err := in.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to register stdlib symbols: %w", err)
	}
	for _, syms := range l.opts.Symbols {
		if err := in.Use(syms); err != nil {
			return nil, fmt.Errorf("failed to register sketch symbols: %w", err)
		}
	}
	return in, nil
}

// Load reads, parses and evaluates the file at path and registers the
// result under name. Top-level declarations and init functions run here.
func (l *Loader) Load(name, path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}

	pkg, err := packageName(path, src)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}

	if _, ok := l.modules[name]; ok {
		l.log.Debug("Replacing loaded module", "module", name)
		l.Unload(name)
	}

	if l.in == nil {
		in, err := l.newInterpreter()
		if err != nil {
			return nil, &LoadError{Name: name, Path: path, Err: err}
		}
		l.in = in
	}

	base := strings.TrimSuffix(filepath.Base(path), SourceExt)
	mod := &Module{
		Name:       name,
		Base:       base,
		Package:    pkg,
		Path:       path,
		source:     string(src),
		importPath: importPath(name, base),
		alias:      aliasFor(name),
	}

	if err := l.publish(mod); err != nil {
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}
	if err := l.evalModule(mod); err != nil {
		l.withdraw(mod)
		// The failed evaluation may have left declarations behind.
		l.rebuild()
		return nil, &LoadError{Name: name, Path: path, Err: err}
	}

	if prev := registry.claim(name, l); prev != nil && prev != l {
		l.log.Warn("Module name taken over from another loader", "module", name)
	}
	l.modules[name] = mod
	l.order = append(l.order, name)

	l.log.Debug("Loaded module", "module", name, "path", path)
	return mod, nil
}

// LoadPackage loads files from dir as modules of the package named after
// dir, importable as "<package>/<basename>". The parent of dir is added to
// the search path once. Files load in the given order, so a module should
// follow the modules it imports. A file that fails to load is logged and
// skipped; the result holds the modules that loaded, keyed by basename.
// Failures of the latest call are available from Failures.
func (l *Loader) LoadPackage(dir string, files []string) map[string]*Module {
	l.failures = nil

	parent := filepath.Dir(dir)
	if l.pathEntry != parent {
		l.dropPathEntry()
		l.pathEntry = parent
		if registry.addPath(parent) {
			l.addedPath = true
			l.log.Debug("Added to search path", "path", parent)
		}
	}

	pkgName := filepath.Base(dir)
	modules := make(map[string]*Module, len(files))

	for _, file := range files {
		if !strings.HasSuffix(file, SourceExt) {
			file += SourceExt
		}
		path := filepath.Join(dir, file)
		base := strings.TrimSuffix(filepath.Base(file), SourceExt)
		name := pkgName + "." + base

		if _, err := os.Stat(path); err != nil {
			l.log.Warn("Module file not found", "path", path)
			l.failures = append(l.failures, &LoadError{Name: name, Path: path, Err: err})
			continue
		}

		mod, err := l.Load(name, path)
		if err != nil {
			l.log.Error("Failed to load module", "module", name, "error", err)
			var le *LoadError
			if errors.As(err, &le) {
				l.failures = append(l.failures, le)
			}
			continue
		}
		modules[base] = mod
	}

	l.log.Info("Loaded modules from package", "package", pkgName, "count", len(modules))
	return modules
}

// Failures returns the load errors of the most recent LoadPackage call.
func (l *Loader) Failures() []*LoadError {
	return l.failures
}

// Function returns the named top-level function of mod, or nil when mod is
// no longer loaded, the name is undefined, or it is not a func() or
// func() error.
func (l *Loader) Function(mod *Module, name string) Func {
	if mod == nil || l.in == nil {
		return nil
	}
	if l.modules[mod.Name] != mod || registry.owner(mod.Name) != l {
		return nil
	}

	expr := name
	if mod.Package != "main" {
		expr = mod.alias + "." + name
	}

	v, err := l.lookup(expr)
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
		return nil
	}

	switch fn := v.Interface().(type) {
	case func():
		return func() error {
			fn()
			return nil
		}
	case func() error:
		return Func(fn)
	}
	return nil
}

// Modules returns the loaded modules in load order.
func (l *Loader) Modules() []*Module {
	out := make([]*Module, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.modules[name])
	}
	return out
}

// Unload removes one module. The remaining modules are re-evaluated in a
// fresh interpreter, so their top-level state is re-initialized.
func (l *Loader) Unload(name string) {
	if _, ok := l.modules[name]; !ok {
		return
	}
	l.withdraw(l.modules[name])
	delete(l.modules, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	registry.evict(name, l)
	l.log.Debug("Unloaded module", "module", name)
	l.rebuild()
}

// Reload reads mod's file again and loads it under the same name.
func (l *Loader) Reload(mod *Module) (*Module, error) {
	if mod == nil {
		return nil, fmt.Errorf("no module to reload")
	}
	reloaded, err := l.Load(mod.Name, mod.Path)
	if err != nil {
		return nil, err
	}
	l.log.Debug("Reloaded module", "module", mod.Name)
	return reloaded, nil
}

// UnloadAll removes every module, drops the search path entry and discards
// the interpreter. Calling it again is a no-op.
func (l *Loader) UnloadAll() {
	for _, name := range l.order {
		registry.evict(name, l)
		l.log.Debug("Unloaded module", "module", name)
	}
	l.modules = make(map[string]*Module)
	l.order = nil
	l.in = nil
	l.sources = afero.NewMemMapFs()
	l.dropPathEntry()
	l.log.Info("All modules unloaded")
}

func (l *Loader) dropPathEntry() {
	if l.pathEntry == "" {
		return
	}
	if l.addedPath && registry.removePath(l.pathEntry) {
		l.log.Debug("Removed from search path", "path", l.pathEntry)
	}
	l.pathEntry = ""
	l.addedPath = false
}

// rebuild replaces the interpreter and replays the registered modules.
// A module that no longer evaluates is dropped.
func (l *Loader) rebuild() {
	l.in = nil
	if len(l.order) == 0 {
		return
	}

	in, err := l.newInterpreter()
	if err != nil {
		l.log.Error("Failed to rebuild interpreter", "error", err)
		for _, name := range l.order {
			registry.evict(name, l)
		}
		l.modules = make(map[string]*Module)
		l.order = nil
		l.sources = afero.NewMemMapFs()
		return
	}
	l.in = in

	kept := l.order[:0]
	for _, name := range l.order {
		mod := l.modules[name]
		if err := l.evalModule(mod); err != nil {
			l.log.Error("Dropped module during rebuild", "module", name, "error", err)
			l.withdraw(mod)
			delete(l.modules, name)
			registry.evict(name, l)
			continue
		}
		kept = append(kept, name)
	}
	l.order = kept
}

// evalModule evaluates mod. A package main module is evaluated in place;
// any other module is imported from the source tree under its alias, which
// runs its top-level declarations once per interpreter.
func (l *Loader) evalModule(mod *Module) error {
	if mod.Package == "main" {
		return l.eval(mod.source)
	}
	return l.eval(fmt.Sprintf("import %s %q", mod.alias, mod.importPath))
}

// publish writes mod's recorded source into the source tree as the only
// file of its import path.
func (l *Loader) publish(mod *Module) error {
	if mod.Package == "main" {
		return nil
	}
	dir := sourceDir(mod.importPath)
	if err := l.sources.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to publish module source: %w", err)
	}
	file := filepath.Join(dir, mod.Base+SourceExt)
	if err := afero.WriteFile(l.sources, file, []byte(mod.source), 0o644); err != nil {
		return fmt.Errorf("failed to publish module source: %w", err)
	}
	return nil
}

// withdraw removes mod from the source tree so it can no longer be imported.
func (l *Loader) withdraw(mod *Module) {
	if mod == nil || mod.Package == "main" {
		return
	}
	if err := l.sources.RemoveAll(sourceDir(mod.importPath)); err != nil {
		l.log.Warn("Failed to withdraw module source", "module", mod.Name, "error", err)
	}
}

// eval runs src in the interpreter, converting panics raised by top-level
// code into errors.
func (l *Loader) eval(src string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during initialization: %v", r)
		}
	}()
	_, err = l.in.Eval(src)
	return err
}

func (l *Loader) lookup(expr string) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lookup %s: %v", expr, r)
		}
	}()
	return l.in.Eval(expr)
}

func sourceDir(importPath string) string {
	return filepath.Join(sourceRoot, "src", filepath.FromSlash(importPath))
}

// importPath maps the qualified name "<package>.<basename>" to
// "<package>/<basename>". A name without a package maps to its basename.
func importPath(name, base string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return base
	}
	return name[:i] + "/" + name[i+1:]
}

// aliasFor derives the identifier a module is imported under at top level.
func aliasFor(name string) string {
	var b strings.Builder
	b.WriteString("module_")
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// packageName parses src and returns its package clause.
func packageName(path string, src []byte) (string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.AllErrors)
	if err != nil {
		return "", err
	}
	return f.Name.Name, nil
}
