package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/randalmurphal/ss7kit/engine"
)

// ErrEngineStart is returned by New when the engine could not be started.
var ErrEngineStart = errors.New("engine start failed")

// Recognized input extensions.
const (
	ExtProject = ".ikn"
	ExtCSV     = ".csv"
)

// Session wraps one started engine and at most one opened project.
// A Session is not safe for concurrent use.
type Session struct {
	rt      engine.Runtime
	data    engine.Data
	workDir string
	path    string
	out     io.Writer

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Session.
type Option func(*Session)

// WithWorkDir sets the directory relative paths are resolved against.
// Default: the process working directory at construction time.
func WithWorkDir(dir string) Option {
	return func(s *Session) { s.workDir = dir }
}

// WithOutput sets where engine error messages are printed.
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// New starts the engine and opens path.
//
// An .ikn path is opened directly. A .csv path is converted into a sibling
// .ikn project first, and that project is opened. The open is attempted even
// when the conversion reported an error, so an existing project from an
// earlier conversion is still used. Any other path leaves the Session inert.
// Open and conversion failures are printed, not returned; a Session whose
// open failed is inert.
//
// New fails when the working directory cannot be captured or the engine
// cannot be started; the latter wraps ErrEngineStart, and the engine is ended
// again before New returns.
func New(ctx context.Context, eng engine.Engine, path string, opts ...Option) (*Session, error) {
	s := &Session{out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	if s.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("capture working directory: %w", err)
		}
		s.workDir = wd
	} else if abs, err := filepath.Abs(s.workDir); err == nil {
		s.workDir = abs
	}
	s.workDir = realPath(s.workDir)

	abs := s.Resolve(path)

	rt, err := eng.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineStart, err)
	}
	s.rt = rt

	if s.isError() {
		if err := rt.End(); err != nil {
			slog.Warn("end engine after failed start", slog.Any("error", err))
		}
		s.rt = nil
		return nil, ErrEngineStart
	}

	switch {
	case strings.HasSuffix(path, ExtProject):
		s.open(abs)
	case strings.HasSuffix(path, ExtCSV):
		dst := projectPath(abs)
		if converted := s.convert(abs, dst); converted != "" {
			dst = converted
		}
		s.open(dst)
	default:
		slog.Debug("unsupported input, session is inert", slog.String("path", abs))
	}

	return s, nil
}

// open opens a project and reports any engine error.
func (s *Session) open(path string) {
	data, err := s.rt.Open(path)
	if err != nil {
		s.report(err.Error())
		return
	}
	if s.isError() && data == nil {
		return
	}
	if data == nil {
		slog.Debug("engine returned no project", slog.String("path", path))
		return
	}
	s.data = data
	s.path = path
	slog.Debug("project opened", slog.String("path", path))
}

// convert runs the engine's CSV to project conversion and returns the path
// the engine wrote, or "" when the call itself failed.
func (s *Session) convert(src, dst string) string {
	out, err := s.rt.CreateDataCSV(src, dst)
	if err != nil {
		s.report(err.Error())
		return ""
	}
	if s.isError() {
		slog.Debug("csv conversion reported an error", slog.String("src", src))
		return out
	}
	slog.Debug("csv converted", slog.String("src", src), slog.String("dst", out))
	return out
}

// projectPath replaces the .csv extension of path with .ikn.
func projectPath(path string) string {
	return strings.TrimSuffix(path, ExtCSV) + ExtProject
}

// Resolve returns path resolved against the captured working directory,
// with symlinks in its existing part resolved.
func (s *Session) Resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workDir, path)
	}
	return realPath(filepath.Clean(path))
}

// realPath resolves symlinks in the longest existing prefix of path. The
// missing tail, such as an output file not written yet, is kept as is.
func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(realPath(parent), filepath.Base(path))
}

// WorkDir returns the working directory captured at construction.
func (s *Session) WorkDir() string {
	return s.workDir
}

// Path returns the opened project path, or "" when the Session is inert.
func (s *Session) Path() string {
	return s.path
}

// IsInert reports whether the Session has no opened project.
func (s *Session) IsInert() bool {
	return s.data == nil
}

// check runs fn against the opened project and then inspects the engine's
// error record. An inert Session skips fn and reports no error.
func (s *Session) check(op string, fn func(engine.Data) error) bool {
	if s.data == nil {
		return false
	}

	if err := fn(s.data); err != nil {
		s.report(err.Error())
		slog.Debug("engine call failed", slog.String("op", op), slog.Any("error", err))
		return true
	}

	hadError := s.isError()
	slog.Debug("engine call", slog.String("op", op), slog.Bool("error", hadError))
	return hadError
}

// isError reads the engine's error record and prints its message if any.
func (s *Session) isError() bool {
	info, err := s.rt.LastError()
	if err != nil {
		s.report(err.Error())
		return true
	}
	if !info.OK {
		s.report(info.Message)
		return true
	}
	return false
}

func (s *Session) report(msg string) {
	fmt.Fprintln(s.out, msg)
}

// Calculate runs stage and stores its outcome in result.
// It returns true if the engine reported an error.
func (s *Session) Calculate(result engine.ResultSlot, stage engine.Stage) bool {
	return s.check("calculate", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		if !stage.Valid() {
			return fmt.Errorf("%w: %q", engine.ErrUnknownStage, string(stage))
		}
		return d.Calculate(result, stage)
	})
}

// Save saves the project.
func (s *Session) Save() bool {
	return s.check("save", func(d engine.Data) error {
		return d.Save()
	})
}

// Restore restores result.
func (s *Session) Restore(result engine.ResultSlot) bool {
	return s.check("restore", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.Restore(result)
	})
}

// DeleteResult deletes result.
func (s *Session) DeleteResult(result engine.ResultSlot) bool {
	return s.check("delete_result", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.DeleteResult(result)
	})
}

// CreateDocument writes the calculation document for result to path.
func (s *Session) CreateDocument(result engine.ResultSlot, path string) bool {
	return s.check("create_document", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.CreateDocument(result, s.Resolve(path))
	})
}

// ExportInputCSV writes the input data of result to path.
func (s *Session) ExportInputCSV(result engine.ResultSlot, path string) bool {
	return s.check("export_input_csv", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.ExportInputCSV(result, s.Resolve(path))
	})
}

// ExportResultCSV writes result to path. outputs names the output items to
// export; "" exports all of them.
func (s *Session) ExportResultCSV(result engine.ResultSlot, path, outputs string) bool {
	return s.check("export_result_csv", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.ExportResultCSV(result, s.Resolve(path), outputs)
	})
}

// ExportCAD7 writes the CAD geometry of result to path.
func (s *Session) ExportCAD7(result engine.ResultSlot, path string) bool {
	return s.check("export_cad7", func(d engine.Data) error {
		if err := validResult(result); err != nil {
			return err
		}
		return d.ExportCAD7(result, s.Resolve(path))
	})
}

func validResult(result engine.ResultSlot) error {
	if !result.Valid() {
		return fmt.Errorf("%w: %q", engine.ErrUnknownResult, string(result))
	}
	return nil
}

// Close saves and closes the opened project, if any, and ends the engine.
// The engine is ended even when the Session is inert. Only the first call
// does anything; later calls return the first call's result.
//
// Engine errors during the save are printed like any other operation.
// Binding failures are logged and the first one is returned.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.data != nil {
			s.Save()
			if err := s.data.Close(); err != nil {
				slog.Warn("close project", slog.String("path", s.path), slog.Any("error", err))
				s.closeErr = fmt.Errorf("close project: %w", err)
			}
			s.data = nil
		}

		if s.rt != nil {
			if err := s.rt.End(); err != nil {
				slog.Warn("end engine", slog.Any("error", err))
				if s.closeErr == nil {
					s.closeErr = fmt.Errorf("end engine: %w", err)
				}
			}
			s.rt = nil
		}
	})
	return s.closeErr
}
