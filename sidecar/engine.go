package sidecar

import (
	"context"
	"fmt"

	"github.com/randalmurphal/ss7kit/engine"
)

// Engine implements engine.Engine by starting one sidecar per runtime.
type Engine struct {
	cfg Config
}

// New creates a sidecar engine.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewWithConfig creates a sidecar engine from a Config.
func NewWithConfig(cfg Config) *Engine {
	return &Engine{cfg: cfg.WithDefaults()}
}

// Config returns the engine configuration with defaults applied.
func (e *Engine) Config() Config {
	return e.cfg.WithDefaults()
}

// Start implements engine.Engine.
func (e *Engine) Start(ctx context.Context) (engine.Runtime, error) {
	cfg := e.cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	proc := NewProcess(cfg)
	if err := proc.Start(ctx); err != nil {
		return nil, err
	}
	return &runtime{proc: proc, cfg: cfg}, nil
}

// caller is the subset of Process used by runtime and data.
type caller interface {
	Call(method string, params, result any) error
	Stop() error
}

type runtime struct {
	proc caller
	cfg  Config
}

func (r *runtime) Open(path string) (engine.Data, error) {
	var result OpenResult
	if err := r.proc.Call(MethodOpen, OpenParams{Path: path, Mode: r.cfg.OpenMode, Option: r.cfg.OpenOption}, &result); err != nil {
		return nil, err
	}
	if !result.Opened {
		return nil, nil
	}
	return &data{proc: r.proc, id: result.DataID, closeMode: r.cfg.CloseMode}, nil
}

func (r *runtime) CreateDataCSV(src, dst string) (string, error) {
	var result PathResult
	if err := r.proc.Call(MethodCreateDataCSV, ConvertParams{Src: src, Dst: dst, Mode: r.cfg.CSVMode}, &result); err != nil {
		return "", err
	}
	if result.Path == "" {
		return dst, nil
	}
	return result.Path, nil
}

func (r *runtime) LastError() (engine.ErrInfo, error) {
	var info engine.ErrInfo
	if err := r.proc.Call(MethodLastError, nil, &info); err != nil {
		return engine.ErrInfo{}, err
	}
	return info, nil
}

func (r *runtime) End() error {
	return r.proc.Stop()
}

type data struct {
	proc      caller
	id        int64
	closeMode int
}

func (d *data) call(method string, p DataParams) error {
	p.DataID = d.id
	return d.proc.Call(method, p, nil)
}

func (d *data) Calculate(result engine.ResultSlot, stage engine.Stage) error {
	return d.call(MethodCalculate, DataParams{Result: result, Stage: stage})
}

func (d *data) Save() error {
	return d.call(MethodSave, DataParams{})
}

func (d *data) Restore(result engine.ResultSlot) error {
	return d.call(MethodRestore, DataParams{Result: result})
}

func (d *data) DeleteResult(result engine.ResultSlot) error {
	return d.call(MethodDeleteResult, DataParams{Result: result})
}

func (d *data) CreateDocument(result engine.ResultSlot, path string) error {
	return d.call(MethodCreateDocument, DataParams{Result: result, Path: path})
}

func (d *data) ExportInputCSV(result engine.ResultSlot, path string) error {
	return d.call(MethodExportInputCSV, DataParams{Result: result, Path: path})
}

func (d *data) ExportResultCSV(result engine.ResultSlot, path, outputs string) error {
	return d.call(MethodExportResultCSV, DataParams{Result: result, Path: path, Outputs: outputs})
}

func (d *data) ExportCAD7(result engine.ResultSlot, path string) error {
	return d.call(MethodExportCAD7, DataParams{Result: result, Path: path})
}

func (d *data) Close() error {
	return d.call(MethodClose, DataParams{Mode: d.closeMode})
}
