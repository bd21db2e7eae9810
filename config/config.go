// Package config loads ss7kit settings from a TOML file and the environment.
//
// A typical ss7kit.toml:
//
//	[engine]
//	python_path = 'C:\Python39\python.exe'
//	startup_timeout = "1m"
//	open_mode = 2
//	close_mode = 2
//	end_mode = 2
//
//	[log]
//	level = "info"
//	format = "text"
//
// Environment variables use the SS7KIT_ prefix and take precedence over the
// file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/randalmurphal/ss7kit/sidecar"
)

// FileName is the configuration file looked up by Find.
const FileName = "ss7kit.toml"

// File is the content of a configuration file.
type File struct {
	Engine sidecar.Config `toml:"engine"`
	Log    LogConfig      `toml:"log"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() File {
	return File{
		Engine: sidecar.DefaultConfig(),
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of Default. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func Load(path string) (File, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return File{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Find returns the first existing configuration file among dir/ss7kit.toml
// and <user config dir>/ss7kit/ss7kit.toml, or "" if there is none.
func Find(dir string) string {
	candidates := []string{filepath.Join(dir, FileName)}
	if userDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(userDir, "ss7kit", FileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// LoadFromEnv applies environment overrides.
//
// Supported variables:
//   - SS7KIT_PYTHON: Python interpreter path
//   - SS7KIT_SIDECAR: sidecar script path
//   - SS7KIT_STARTUP_TIMEOUT: startup timeout (e.g., "1m")
//   - SS7KIT_REQUEST_TIMEOUT: per-call timeout (e.g., "2h")
//   - SS7KIT_LOG_LEVEL: log level
func (f *File) LoadFromEnv() {
	if v := os.Getenv("SS7KIT_PYTHON"); v != "" {
		f.Engine.PythonPath = v
	}
	if v := os.Getenv("SS7KIT_SIDECAR"); v != "" {
		f.Engine.SidecarPath = v
	}
	if v := os.Getenv("SS7KIT_STARTUP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			f.Engine.StartupTimeout = d
		}
	}
	if v := os.Getenv("SS7KIT_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			f.Engine.RequestTimeout = d
		}
	}
	if v := os.Getenv("SS7KIT_LOG_LEVEL"); v != "" {
		f.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (f *File) Validate() error {
	engine := f.Engine.WithDefaults()
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := f.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch f.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q, expected text or json", f.Log.Format)
	}
	return nil
}

// SlogLevel converts Level to a slog.Level. Empty means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, errors.New("unknown level " + l.Level)
	}
	return level, nil
}
