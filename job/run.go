package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/ss7kit/engine"
	"github.com/randalmurphal/ss7kit/session"
)

// Status is the outcome of one step.
type Status string

// Step outcomes.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records how one step went.
type StepResult struct {
	Index    int           `json:"index"`
	Label    string        `json:"label"`
	Op       Op            `json:"op"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes a job run.
type Report struct {
	RunID    string        `json:"run_id"`
	Input    string        `json:"input"`
	Project  string        `json:"project,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Steps    []StepResult  `json:"steps"`
}

// Opened reports whether the input was opened. Steps against an unopened
// input are no-ops that report success.
func (r *Report) Opened() bool {
	return r.Project != ""
}

// Failed returns the number of failed steps.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Skipped returns the number of skipped steps.
func (r *Report) Skipped() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	output io.Writer
}

// WithOutput sets where engine error messages are printed.
// Default: os.Stdout.
func WithOutput(w io.Writer) RunOption {
	return func(c *runConfig) { c.output = w }
}

// Run executes j against a fresh engine session.
//
// Steps run in order. A failed step is recorded and, with StopOnError, the
// remaining steps are skipped. The session is closed (saving the project)
// whether or not steps failed. Cancelling ctx skips the steps not yet
// started and returns ctx.Err() alongside the partial report.
func Run(ctx context.Context, eng engine.Engine, j *Job, opts ...RunOption) (*Report, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Input:   j.InputPath(),
		Started: time.Now(),
		Steps:   make([]StepResult, 0, len(j.Steps)),
	}
	logger := slog.With(slog.String("run_id", report.RunID))

	var sessOpts []session.Option
	if j.Dir != "" {
		sessOpts = append(sessOpts, session.WithWorkDir(j.Dir))
	}
	if cfg.output != nil {
		sessOpts = append(sessOpts, session.WithOutput(cfg.output))
	}

	sess, err := session.New(ctx, eng, j.Input, sessOpts...)
	if err != nil {
		return nil, err
	}
	report.Project = sess.Path()
	if !report.Opened() {
		logger.Warn("input not opened, steps are no-ops", slog.String("input", report.Input))
	}

	stop := false
	var runErr error
	for i, step := range j.Steps {
		res := StepResult{Index: i + 1, Label: step.Label(), Op: step.Op}

		if !stop && ctx.Err() != nil {
			runErr = ctx.Err()
			stop = true
		}
		if stop {
			res.Status = StatusSkipped
			report.Steps = append(report.Steps, res)
			continue
		}

		began := time.Now()
		failed := apply(sess, step)
		res.Duration = time.Since(began)
		res.Status = StatusOK
		if failed {
			res.Status = StatusFailed
			stop = j.StopOnError
		}
		logger.Info("step",
			slog.Int("index", res.Index),
			slog.String("label", res.Label),
			slog.String("status", string(res.Status)),
			slog.Duration("duration", res.Duration))
		report.Steps = append(report.Steps, res)
	}

	if err := sess.Close(); err != nil {
		logger.Warn("close session", slog.Any("error", err))
	}
	report.Duration = time.Since(report.Started)
	return report, runErr
}

// apply runs one validated step. It returns true if the step failed.
func apply(sess *session.Session, step Step) bool {
	if step.Op == OpSave {
		return sess.Save()
	}

	result, err := step.ResultSlot()
	if err != nil {
		panic(fmt.Sprintf("job: unvalidated step: %v", err))
	}

	switch step.Op {
	case OpCalculate:
		stage, err := step.CalculationStage()
		if err != nil {
			panic(fmt.Sprintf("job: unvalidated step: %v", err))
		}
		return sess.Calculate(result, stage)
	case OpRestore:
		return sess.Restore(result)
	case OpDeleteResult:
		return sess.DeleteResult(result)
	case OpCreateDocument:
		return sess.CreateDocument(result, step.Path)
	case OpExportInputCSV:
		return sess.ExportInputCSV(result, step.Path)
	case OpExportResultCSV:
		return sess.ExportResultCSV(result, step.Path, step.Outputs)
	case OpExportCAD7:
		return sess.ExportCAD7(result, step.Path)
	}
	panic(fmt.Sprintf("job: unknown op %q", step.Op))
}
