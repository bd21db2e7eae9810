package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/ss7kit/engine"
)

// ErrInvalidJob indicates a job file that cannot be run.
var ErrInvalidJob = errors.New("invalid job")

// Op names a session operation.
type Op string

// Supported operations.
const (
	OpCalculate       Op = "calculate"
	OpSave            Op = "save"
	OpRestore         Op = "restore"
	OpDeleteResult    Op = "delete_result"
	OpCreateDocument  Op = "create_document"
	OpExportInputCSV  Op = "export_input_csv"
	OpExportResultCSV Op = "export_result_csv"
	OpExportCAD7      Op = "export_cad7"
)

// Ops returns every supported operation.
func Ops() []Op {
	return []Op{
		OpCalculate, OpSave, OpRestore, OpDeleteResult,
		OpCreateDocument, OpExportInputCSV, OpExportResultCSV, OpExportCAD7,
	}
}

// needs describes which step fields an operation requires.
type needs struct {
	result bool
	stage  bool
	path   bool
}

var opNeeds = map[Op]needs{
	OpCalculate:       {result: true, stage: true},
	OpSave:            {},
	OpRestore:         {result: true},
	OpDeleteResult:    {result: true},
	OpCreateDocument:  {result: true, path: true},
	OpExportInputCSV:  {result: true, path: true},
	OpExportResultCSV: {result: true, path: true},
	OpExportCAD7:      {result: true, path: true},
}

// Format is a job file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unsupported job file extension %q", ErrInvalidJob, filepath.Ext(path))
}

// Job is a batch of operations against one input.
type Job struct {
	// Input is the .ikn project or .csv input file.
	Input string `json:"input" yaml:"input" toml:"input" jsonschema_description:"Project directory (.ikn) or SS7 input CSV (.csv) relative to the job file"`

	// StopOnError skips the remaining steps after the first failed one.
	StopOnError bool `json:"stop_on_error,omitempty" yaml:"stop_on_error" toml:"stop_on_error" jsonschema_description:"Skip the remaining steps after the first failure"`

	Steps []Step `json:"steps" yaml:"steps" toml:"steps" jsonschema_description:"Operations run in order"`

	// Dir is the directory relative paths are resolved against.
	// Load sets it to the job file's directory with symlinks resolved.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// Step is one operation.
type Step struct {
	Op      Op     `json:"op" yaml:"op" toml:"op"`
	Name    string `json:"name,omitempty" yaml:"name" toml:"name" jsonschema_description:"Label used in reports"`
	Result  string `json:"result,omitempty" yaml:"result" toml:"result"`
	Stage   string `json:"stage,omitempty" yaml:"stage" toml:"stage"`
	Path    string `json:"path,omitempty" yaml:"path" toml:"path" jsonschema_description:"Output file relative to the job file"`
	Outputs string `json:"outputs,omitempty" yaml:"outputs" toml:"outputs" jsonschema_description:"Output item names for export_result_csv; empty exports all"`
}

// Label returns the step name, or its operation when unnamed.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Op)
}

// ResultSlot parses the step's result slot.
func (s Step) ResultSlot() (engine.ResultSlot, error) {
	return engine.ParseResultSlot(s.Result)
}

// CalculationStage parses the step's calculation stage.
func (s Step) CalculationStage() (engine.Stage, error) {
	return engine.ParseStage(s.Stage)
}

// Validate checks every step and reports all problems at once.
func (j *Job) Validate() error {
	var errs []error
	if strings.TrimSpace(j.Input) == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if len(j.Steps) == 0 {
		errs = append(errs, errors.New("at least one step is required"))
	}

	for i, step := range j.Steps {
		n, ok := opNeeds[step.Op]
		if !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown op %q", i+1, step.Op))
			continue
		}
		if n.result {
			if _, err := step.ResultSlot(); err != nil {
				errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err))
			}
		}
		if n.stage {
			if _, err := step.CalculationStage(); err != nil {
				errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err))
			}
		}
		if n.path && strings.TrimSpace(step.Path) == "" {
			errs = append(errs, fmt.Errorf("step %d (%s): path is required", i+1, step.Op))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidJob, errors.Join(errs...))
}

// InputPath returns Input resolved against Dir.
func (j *Job) InputPath() string {
	if filepath.IsAbs(j.Input) || j.Dir == "" {
		return j.Input
	}
	return filepath.Join(j.Dir, j.Input)
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job: %w", err)
	}
	defer f.Close()

	j, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	j.Dir = filepath.Dir(abs)
	if dir, err := filepath.EvalSymlinks(j.Dir); err == nil {
		j.Dir = dir
	}

	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return j, nil
}

// Decode parses a job without validating it. Unknown fields are rejected.
func Decode(r io.Reader, format Format) (*Job, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}

	var j Job
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&j); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &j)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidJob, undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&j); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidJob, format)
	}
	return &j, nil
}
