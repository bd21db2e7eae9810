package sidecar

import (
	"fmt"
	"time"
)

// Config holds sidecar configuration.
type Config struct {
	// PythonPath is the Python interpreter that can import Ss7Python.
	// Default: "python"
	PythonPath string `json:"python_path" yaml:"python_path" toml:"python_path"`

	// SidecarPath is the sidecar script to run.
	// Empty uses the bundled script.
	SidecarPath string `json:"sidecar_path" yaml:"sidecar_path" toml:"sidecar_path"`

	// WorkDir is the working directory of the sidecar process.
	WorkDir string `json:"work_dir" yaml:"work_dir" toml:"work_dir"`

	// Env provides additional environment variables for the sidecar.
	Env map[string]string `json:"env" yaml:"env" toml:"env"`

	// StartupTimeout bounds process start plus engine initialization.
	// Default: 30 seconds.
	StartupTimeout time.Duration `json:"startup_timeout" yaml:"startup_timeout" toml:"startup_timeout"`

	// RequestTimeout bounds each engine call. 0 waits forever, which matches
	// the engine's own blocking behaviour.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`

	// StartMode is passed to Ss7Python.Start.
	// Default: 1
	StartMode int `json:"start_mode" yaml:"start_mode" toml:"start_mode"`

	// OpenMode and OpenOption are passed to Ss7Python.Open.
	// Default: 2 and 2
	OpenMode   int `json:"open_mode" yaml:"open_mode" toml:"open_mode"`
	OpenOption int `json:"open_option" yaml:"open_option" toml:"open_option"`

	// CSVMode is passed to Ss7Python.CreateDataCsv.
	// Default: 1
	CSVMode int `json:"csv_mode" yaml:"csv_mode" toml:"csv_mode"`

	// CloseMode is passed to Ss7Data.Close.
	// Default: 2
	CloseMode int `json:"close_mode" yaml:"close_mode" toml:"close_mode"`

	// EndMode is passed to Ss7Python.End.
	// Default: 2
	EndMode int `json:"end_mode" yaml:"end_mode" toml:"end_mode"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PythonPath:     "python",
		StartupTimeout: 30 * time.Second,
		StartMode:      1,
		OpenMode:       2,
		OpenOption:     2,
		CSVMode:        1,
		CloseMode:      2,
		EndMode:        2,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PythonPath == "" {
		return fmt.Errorf("python_path is required")
	}
	if c.StartupTimeout < 0 {
		return fmt.Errorf("startup_timeout must be >= 0")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0")
	}
	if c.StartMode < 0 || c.OpenMode < 0 || c.OpenOption < 0 || c.CSVMode < 0 {
		return fmt.Errorf("engine modes must be >= 0")
	}
	if c.CloseMode < 0 || c.EndMode < 0 {
		return fmt.Errorf("close_mode and end_mode must be >= 0")
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.PythonPath == "" {
		c.PythonPath = defaults.PythonPath
	}
	if c.StartupTimeout == 0 {
		c.StartupTimeout = defaults.StartupTimeout
	}
	if c.StartMode == 0 {
		c.StartMode = defaults.StartMode
	}
	if c.OpenMode == 0 {
		c.OpenMode = defaults.OpenMode
	}
	if c.OpenOption == 0 {
		c.OpenOption = defaults.OpenOption
	}
	if c.CSVMode == 0 {
		c.CSVMode = defaults.CSVMode
	}
	if c.CloseMode == 0 {
		c.CloseMode = defaults.CloseMode
	}
	if c.EndMode == 0 {
		c.EndMode = defaults.EndMode
	}

	return c
}

// Option configures an Engine.
type Option func(*Engine)

// WithPythonPath sets the Python interpreter path.
func WithPythonPath(path string) Option {
	return func(e *Engine) { e.cfg.PythonPath = path }
}

// WithSidecarPath sets the sidecar script path.
func WithSidecarPath(path string) Option {
	return func(e *Engine) { e.cfg.SidecarPath = path }
}

// WithWorkDir sets the working directory for the sidecar.
func WithWorkDir(dir string) Option {
	return func(e *Engine) { e.cfg.WorkDir = dir }
}

// WithEnv adds environment variables for the sidecar process.
func WithEnv(env map[string]string) Option {
	return func(e *Engine) {
		if e.cfg.Env == nil {
			e.cfg.Env = make(map[string]string)
		}
		for k, v := range env {
			e.cfg.Env[k] = v
		}
	}
}

// WithStartupTimeout sets the startup timeout.
func WithStartupTimeout(d time.Duration) Option {
	return func(e *Engine) { e.cfg.StartupTimeout = d }
}

// WithRequestTimeout sets the per-call timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.cfg.RequestTimeout = d }
}

// WithStartMode sets the mode passed to Ss7Python.Start.
func WithStartMode(mode int) Option {
	return func(e *Engine) { e.cfg.StartMode = mode }
}

// WithOpenModes sets the mode and option passed to Ss7Python.Open.
func WithOpenModes(mode, option int) Option {
	return func(e *Engine) {
		e.cfg.OpenMode = mode
		e.cfg.OpenOption = option
	}
}

// WithCSVMode sets the mode passed to Ss7Python.CreateDataCsv.
func WithCSVMode(mode int) Option {
	return func(e *Engine) { e.cfg.CSVMode = mode }
}

// WithFinalizeModes sets the modes passed to Ss7Data.Close and Ss7Python.End.
func WithFinalizeModes(closeMode, endMode int) Option {
	return func(e *Engine) {
		e.cfg.CloseMode = closeMode
		e.cfg.EndMode = endMode
	}
}
