package config

// Display configures the framebuffer and the live window.
type Display struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	RefreshFPS int `yaml:"refresh_fps"`
	Scale      int `yaml:"scale"`
}

// Executor configures how sketches are persisted and scheduled.
type Executor struct {
	Project      string `yaml:"project"`
	MainModule   string `yaml:"main_module"`
	DrawPeriodMS int    `yaml:"draw_period_ms"`
}

// Export configures headless frame capture.
type Export struct {
	Frames          int `yaml:"frames"`
	FrameDurationMS int `yaml:"frame_duration_ms"`
}

// Config represents the peyote config.yaml file.
type Config struct {
	Debug       bool     `yaml:"debug"`
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file,omitempty"`
	SketchesDir string   `yaml:"sketches_dir,omitempty"`
	Display     Display  `yaml:"display"`
	Executor    Executor `yaml:"executor"`
	Export      Export   `yaml:"export"`
}

// Environment variables read from the process and from .env-peyote.
const (
	EnvDebug       = "PEYOTE_DEBUG"
	EnvLogLevel    = "PEYOTE_LOG_LEVEL"
	EnvLogFile     = "PEYOTE_LOG_FILE"
	EnvSketchesDir = "PEYOTE_SKETCHES_DIR"
)

// EnvFileName is the dotenv file looked up in the working directory.
const EnvFileName = ".env-peyote"
