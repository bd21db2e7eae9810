// Package job runs batches of session operations described in a file.
//
// A job names one input (an .ikn project or SS7 input .csv) and the steps to
// run against it, in order:
//
//	input: model/building.csv
//	stop_on_error: true
//	steps:
//	  - op: calculate
//	    result: 結果1
//	    stage: 準備計算
//	  - op: calculate
//	    result: result1
//	    stage: primary-stress
//	  - op: export_result_csv
//	    result: 結果1
//	    path: out/result1.csv
//	    outputs: 部材応力
//
// Jobs can be written in YAML, TOML or JSON; Load picks the format from the
// file extension. Relative paths in a job are relative to the job file.
//
// Result slots and stages accept the engine's names or their ASCII aliases
// (see engine.ParseResultSlot and engine.ParseStage). Stages are run exactly
// in the order listed; the job does not reorder or add prerequisite stages.
//
// Schema returns a JSON Schema for the job format, suitable for editor
// validation of job files.
package job
