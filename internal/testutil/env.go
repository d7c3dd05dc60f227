package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/pirateninja/peyote/internal/loader"
	"github.com/stretchr/testify/require"
)

// UniqueProject returns a project name derived from the test name. Loaded
// module names are process-wide, so tests that load sketches must not share
// a project name.
func UniqueProject(t *testing.T) string {
	t.Helper()
	h := sha256.Sum256([]byte(t.Name()))
	return "p_" + hex.EncodeToString(h[:])[:12]
}

// SetupSketchDir writes modules as <name>.go files into a fresh directory
// and returns its path.
func SetupSketchDir(t *testing.T, modules map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sketch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, src := range modules {
		WriteTestFile(t, dir, name+loader.SourceExt, []byte(src))
	}
	return dir
}

// WriteConfig writes content as config.yaml in dir and returns its path.
func WriteConfig(t *testing.T, dir, content string) string {
	t.Helper()
	WriteTestFile(t, dir, "config.yaml", []byte(content))
	return filepath.Join(dir, "config.yaml")
}

// WriteTestFile writes content to a file in the test directory.
// Creates parent directories as needed.
func WriteTestFile(t *testing.T, basePath, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
}

// UnloadOnCleanup unloads every module of l when the test completes.
func UnloadOnCleanup(t *testing.T, l *loader.Loader) {
	t.Helper()
	t.Cleanup(l.UnloadAll)
}
