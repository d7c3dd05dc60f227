package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user application directories.
const AppName = "dev.pirateninja.peyote"

// Dirs holds the per-user locations peyote reads and writes.
type Dirs struct {
	Data     string // auto-saved sketches and logs
	Config   string // config.yaml
	Sketches string // one sub-directory per sketch project
	LogFile  string
}

// ResolveDirs computes the application directories for the current user
// from the platform's base directories. Nothing is created on disk.
func ResolveDirs() (Dirs, error) {
	// Environment overrides are read again on every call.
	xdg.Reload()
	if xdg.DataHome == "" || xdg.ConfigHome == "" {
		return Dirs{}, fmt.Errorf("failed to resolve user directories")
	}
	return dirsFor(filepath.Join(xdg.DataHome, AppName), filepath.Join(xdg.ConfigHome, AppName)), nil
}

func dirsFor(data, cfg string) Dirs {
	return Dirs{
		Data:     data,
		Config:   cfg,
		Sketches: filepath.Join(data, "sketches"),
		LogFile:  filepath.Join(data, "peyote-ide.log"),
	}
}

// ConfigFile returns the path of config.yaml.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.Config, "config.yaml")
}

// Apply points Sketches and LogFile at cfg overrides when set.
func (d Dirs) Apply(cfg *Config) Dirs {
	if cfg.SketchesDir != "" {
		d.Sketches = cfg.SketchesDir
	}
	if cfg.LogFile != "" {
		d.LogFile = cfg.LogFile
	}
	return d
}
