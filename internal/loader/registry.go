package loader

import (
	"sync"
)

// registry is the process-wide table of loaded sketch modules and package
// roots. Only Loader methods touch it.
var registry = &moduleRegistry{
	owners: make(map[string]*Loader),
}

type moduleRegistry struct {
	mu     sync.Mutex
	owners map[string]*Loader
	paths  []string
}

// claim records l as the owner of name and returns the previous owner, if
// any. A module whose name is claimed by another loader becomes stale for
// its former owner.
func (r *moduleRegistry) claim(name string, l *Loader) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.owners[name]
	r.owners[name] = l
	return prev
}

// evict removes name if it is still owned by l.
func (r *moduleRegistry) evict(name string, l *Loader) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[name] != l {
		return false
	}
	delete(r.owners, name)
	return true
}

func (r *moduleRegistry) owner(name string) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners[name]
}

// addPath appends dir unless present and reports whether it was added.
func (r *moduleRegistry) addPath(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == dir {
			return false
		}
	}
	r.paths = append(r.paths, dir)
	return true
}

func (r *moduleRegistry) removePath(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.paths {
		if p == dir {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			return true
		}
	}
	return false
}

// Registered reports whether a module with the qualified name is loaded in
// this process.
func Registered(name string) bool {
	return registry.owner(name) != nil
}

// SearchPath returns the package roots currently known to the process.
func SearchPath() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return append([]string(nil), registry.paths...)
}
