package sidecar

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed ss7_sidecar.py
var bundledScript []byte

// Script returns the bundled sidecar script.
func Script() []byte {
	out := make([]byte, len(bundledScript))
	copy(out, bundledScript)
	return out
}

// resolveScript returns the script to run. An empty path writes the bundled
// script to a temporary file; temp reports whether the caller must remove it.
func resolveScript(path string) (script string, temp bool, err error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", false, fmt.Errorf("sidecar script: %w", err)
		}
		return path, false, nil
	}

	f, err := os.CreateTemp("", "ss7_sidecar_*.py")
	if err != nil {
		return "", false, fmt.Errorf("write bundled sidecar: %w", err)
	}
	if _, err := f.Write(bundledScript); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", false, fmt.Errorf("write bundled sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", false, fmt.Errorf("write bundled sidecar: %w", err)
	}
	return f.Name(), true, nil
}
