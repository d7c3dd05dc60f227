package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultWidth           = 640
	DefaultHeight          = 360
	DefaultRefreshFPS      = 60
	DefaultScale           = 1
	DefaultProject         = "current_sketch"
	DefaultMainModule      = "sketch"
	DefaultDrawPeriodMS    = 16
	DefaultExportFrames    = 60
	DefaultFrameDurationMS = 33
	DefaultLogLevel        = "info"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Display: Display{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			RefreshFPS: DefaultRefreshFPS,
			Scale:      DefaultScale,
		},
		Executor: Executor{
			Project:      DefaultProject,
			MainModule:   DefaultMainModule,
			DrawPeriodMS: DefaultDrawPeriodMS,
		},
		Export: Export{
			Frames:          DefaultExportFrames,
			FrameDurationMS: DefaultFrameDurationMS,
		},
	}
}

// DrawPeriod returns the draw timer period as a duration.
func (e Executor) DrawPeriod() time.Duration {
	return time.Duration(e.DrawPeriodMS) * time.Millisecond
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// LoadConfig reads and parses the config file at path.
// A missing file yields the defaults; fields absent from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Display.Width <= 0 {
		return ValidationError{Field: "display.width", Message: "must be positive"}
	}
	if cfg.Display.Height <= 0 {
		return ValidationError{Field: "display.height", Message: "must be positive"}
	}
	if cfg.Display.RefreshFPS <= 0 || cfg.Display.RefreshFPS > 240 {
		return ValidationError{Field: "display.refresh_fps", Message: "must be between 1 and 240"}
	}
	if cfg.Display.Scale <= 0 {
		return ValidationError{Field: "display.scale", Message: "must be positive"}
	}
	if strings.TrimSpace(cfg.Executor.Project) == "" {
		return ValidationError{Field: "executor.project", Message: "required field is empty"}
	}
	if strings.TrimSpace(cfg.Executor.MainModule) == "" {
		return ValidationError{Field: "executor.main_module", Message: "required field is empty"}
	}
	if cfg.Executor.DrawPeriodMS <= 0 {
		return ValidationError{Field: "executor.draw_period_ms", Message: "must be positive"}
	}
	if cfg.Export.Frames <= 0 {
		return ValidationError{Field: "export.frames", Message: "must be positive"}
	}
	if cfg.Export.FrameDurationMS <= 0 {
		return ValidationError{Field: "export.frame_duration_ms", Message: "must be positive"}
	}
	return nil
}

// LoadEnv reads .env-peyote from dir and overlays the PEYOTE_* variables of
// the process environment, which take precedence. A missing file is not an
// error.
func LoadEnv(dir string) (map[string]string, error) {
	env := make(map[string]string)

	path := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(path); err == nil {
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat env file: %w", err)
	}

	for _, key := range []string{EnvDebug, EnvLogLevel, EnvLogFile, EnvSketchesDir} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	return env, nil
}

// ApplyEnv overrides cfg fields from env.
func ApplyEnv(cfg *Config, env map[string]string) error {
	if v, ok := env[EnvDebug]; ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return ValidationError{Field: EnvDebug, Message: fmt.Sprintf("invalid boolean %q", v)}
		}
		cfg.Debug = debug
	}
	if v := env[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := env[EnvLogFile]; v != "" {
		cfg.LogFile = v
	}
	if v := env[EnvSketchesDir]; v != "" {
		cfg.SketchesDir = v
	}
	return nil
}
