package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pirateninja/peyote/internal/config"
	"github.com/pirateninja/peyote/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	debugFlag  bool
	configPath string

	// settings is resolved before any subcommand runs.
	settings *config.Config
	dirs     config.Dirs
	logFile  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "peyote",
	Short: "Run Processing-style Go sketches",
	Long: `Peyote runs creative-coding sketches written in Go. A sketch is a
directory of Go source files whose main module defines Setup() and Draw().
Setup runs once, Draw runs on a fixed timer and paints into a shared
framebuffer shown in a window or exported to PNG/GIF.`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadSettings,
	PersistentPostRunE: closeLog,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("peyote version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "D", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: user config dir)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadSettings(cmd *cobra.Command, args []string) error {
	resolved, err := config.ResolveDirs()
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = resolved.ConfigFile()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	env, err := config.LoadEnv(cwd)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, env); err != nil {
		return err
	}
	if debugFlag {
		cfg.Debug = true
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	resolved = resolved.Apply(cfg)
	if err := setupLogging(cfg, resolved.LogFile); err != nil {
		return err
	}

	settings = cfg
	dirs = resolved
	logging.Debug("Settings loaded", "config", path, "sketches", dirs.Sketches)
	return nil
}

// setupLogging sets the level and tees log output into path, the data dir
// log file unless the config names another.
func setupLogging(cfg *config.Config, path string) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.ValidationError{Field: "log_level", Message: err.Error()}
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.SetLevel(level)

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return err
	}
	logging.SetWriter(io.MultiWriter(os.Stderr, f))
	logFile = f
	logging.Info("Logging initialized", "file", path)
	return nil
}

func closeLog(cmd *cobra.Command, args []string) error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	logging.SetWriter(os.Stderr)
	return err
}
