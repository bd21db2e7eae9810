// Package watch calls a function whenever one of a set of files changes.
//
// Changes are detected with fsnotify on the files' parent directories, which
// survives editors that replace files instead of writing them in place. When
// fsnotify is unavailable the Watcher falls back to polling modification
// times. Bursts of events are debounced into one call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Defaults.
const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
)

// Watcher observes a fixed set of files.
type Watcher struct {
	paths    map[string]struct{}
	debounce time.Duration
	interval time.Duration
	poll     bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long events must stop before the callback runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling period used without fsnotify.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithPolling disables fsnotify.
func WithPolling() Option {
	return func(w *Watcher) { w.poll = true }
}

// New creates a Watcher for paths. The files need not exist yet.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	w := &Watcher{
		paths:    make(map[string]struct{}, len(paths)),
		debounce: DefaultDebounce,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		w.paths[abs] = struct{}{}
	}
	return w, nil
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	return out
}

// Run calls fn after each change until ctx is done, then returns ctx.Err().
// fn runs on the calling goroutine, so calls never overlap; changes made
// while fn runs trigger another call afterwards.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	if !w.poll {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			defer watcher.Close()
			if err = w.addDirs(watcher); err == nil {
				return w.runNotify(ctx, watcher, fn)
			}
		}
		slog.Debug("fsnotify unavailable, polling", slog.Any("error", err))
	}
	return w.runPolling(ctx, fn)
}

func (w *Watcher) addDirs(watcher *fsnotify.Watcher) error {
	seen := make(map[string]bool)
	for p := range w.paths {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Watcher) runNotify(ctx context.Context, watcher *fsnotify.Watcher, fn func()) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := w.paths[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			if pending {
				pending = false
				fn()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.Any("error", err))
		}
	}
}

// stamp identifies one version of a file.
type stamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (s stamp) same(o stamp) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

func stat(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// runPolling debounces by waiting for one quiet interval after a change.
func (w *Watcher) runPolling(ctx context.Context, fn func()) error {
	last := make(map[string]stamp, len(w.paths))
	for p := range w.paths {
		last[p] = stat(p)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			changed := false
			for p, prev := range last {
				cur := stat(p)
				if !cur.same(prev) {
					last[p] = cur
					changed = true
					slog.Debug("file changed", slog.String("path", p))
				}
			}
			switch {
			case changed:
				pending = true
			case pending:
				pending = false
				fn()
			}
		}
	}
}
