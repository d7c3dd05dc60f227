// Package project persists the source modules of a sketch project so the
// loader can import them as one unit.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pirateninja/peyote/internal/logging"
	"gopkg.in/yaml.v3"
)

// ModuleExt is the file extension of sketch modules.
const ModuleExt = ".go"

// ManifestFile is the reserved marker file of every project directory.
// Clear never removes it.
const ManifestFile = "peyote.yaml"

// Manifest is the content of the marker file.
type Manifest struct {
	Project   string    `yaml:"project"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Store handles the on-disk modules of one sketch project.
type Store struct {
	name string
	dir  string
	log  *logging.Logger
}

// Open creates (if absent) the directory for project under root and writes
// its manifest once.
func Open(root, name string) (*Store, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("project name is required")
	}

	s := &Store{
		name: name,
		dir:  filepath.Join(root, sanitizeName(name)),
		log:  logging.With("project", name),
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	manifestPath := filepath.Join(s.dir, ManifestFile)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		data, err := yaml.Marshal(&Manifest{Project: name, CreatedAt: time.Now().UTC()})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	s.log.Debug("Project store opened", "dir", s.dir)
	return s, nil
}

// sanitizeName converts a project name to a single safe directory name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
}

// Name returns the project name.
func (s *Store) Name() string {
	return s.name
}

// Dir returns the project directory. Its base name is the package name the
// loader qualifies modules with.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns name with the module extension appended if absent.
func FileName(name string) string {
	if strings.HasSuffix(name, ModuleExt) {
		return name
	}
	return name + ModuleExt
}

// Path returns the file path for module name. The same name always maps to
// the same path.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

// Exists reports whether module name is on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Save writes content as module name and returns its path.
func (s *Store) Save(name, content string) (string, error) {
	if strings.TrimSpace(strings.TrimSuffix(name, ModuleExt)) == "" {
		return "", fmt.Errorf("module name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid module name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	path := s.Path(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write module %s: %w", name, err)
	}

	s.log.Debug("Saved module", "path", path)
	return path, nil
}

// SaveAll saves every module and returns name to path for each one written.
// Entries are written in name order; the first failure stops the batch and
// the modules already written stay on disk.
func (s *Store) SaveAll(modules map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make(map[string]string, len(modules))
	for _, name := range names {
		path, err := s.Save(name, modules[name])
		if err != nil {
			return paths, err
		}
		paths[name] = path
	}

	s.log.Info("Saved modules", "count", len(paths))
	return paths, nil
}

// Modules lists the basenames of the module files currently on disk.
func (s *Store) Modules() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ModuleExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ModuleExt))
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes every module file, keeping the manifest.
func (s *Store) Clear() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ModuleExt))
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	for _, m := range matches {
		if filepath.Base(m) == ManifestFile {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove module %s: %w", filepath.Base(m), err)
		}
		s.log.Debug("Removed module", "path", m)
	}
	return nil
}

// Manifest reads the project's marker file.
func (s *Store) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
