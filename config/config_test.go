package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `
[engine]
python_path = 'C:\Python39\python.exe'
startup_timeout = "1m"
request_timeout = "2h"
open_mode = 3
close_mode = 1

[engine.env]
SS7_LICENSE = "node-locked"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, `C:\Python39\python.exe`, cfg.Engine.PythonPath)
	assert.Equal(t, time.Minute, cfg.Engine.StartupTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Engine.RequestTimeout)
	assert.Equal(t, 3, cfg.Engine.OpenMode)
	assert.Equal(t, 2, cfg.Engine.OpenOption, "unset keys keep defaults")
	assert.Equal(t, 1, cfg.Engine.CloseMode)
	assert.Equal(t, 2, cfg.Engine.EndMode, "unset keys keep defaults")
	assert.Equal(t, map[string]string{"SS7_LICENSE": "node-locked"}, cfg.Engine.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `
[engine]
pyhton_path = "python"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.pyhton_path")
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `[engine`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, Find(dir))

	path := writeFile(t, dir, FileName, "")
	assert.Equal(t, path, Find(dir))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SS7KIT_PYTHON", "/opt/python39/bin/python")
	t.Setenv("SS7KIT_SIDECAR", "/opt/ss7kit/sidecar.py")
	t.Setenv("SS7KIT_STARTUP_TIMEOUT", "45s")
	t.Setenv("SS7KIT_REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("SS7KIT_LOG_LEVEL", "warn")

	cfg := Default()
	cfg.LoadFromEnv()

	assert.Equal(t, "/opt/python39/bin/python", cfg.Engine.PythonPath)
	assert.Equal(t, "/opt/ss7kit/sidecar.py", cfg.Engine.SidecarPath)
	assert.Equal(t, 45*time.Second, cfg.Engine.StartupTimeout)
	assert.Equal(t, time.Duration(0), cfg.Engine.RequestTimeout, "invalid durations are ignored")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*File)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*File) {}},
		{name: "negative timeout", mutate: func(f *File) { f.Engine.RequestTimeout = -time.Second }, wantErr: true},
		{name: "bad level", mutate: func(f *File) { f.Log.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(f *File) { f.Log.Format = "xml" }, wantErr: true},
		{name: "empty python uses default", mutate: func(f *File) { f.Engine.PythonPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	level, err := LogConfig{}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	level, err = LogConfig{Level: "DEBUG"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = LogConfig{Level: "verbose"}.SlogLevel()
	assert.Error(t, err)
}
