// Package ss7kit drives the SS7 structural analysis engine from Go.
//
// The engine is only reachable through its Python binding, so ss7kit runs a
// small Python sidecar and talks to it over JSON-RPC. Each subpackage can be
// used on its own:
//
//   - engine: identifiers (result slots, stages) and the Engine interface
//   - sidecar: Engine implementation backed by the Python sidecar
//   - session: one opened project with error-checked operations
//   - job: batch files of session operations, with a JSON Schema
//   - watch: re-run on file changes
//   - config: ss7kit.toml and SS7KIT_* environment settings
//
// # Quick Start
//
//	eng := sidecar.New(sidecar.WithPythonPath(`C:\Python39\python.exe`))
//	sess, err := session.New(ctx, eng, "building.csv")
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	if sess.Calculate(engine.Result1, engine.StagePreparation) {
//		return errors.New("preparation failed")
//	}
//	sess.ExportResultCSV(engine.Result1, "out/result1.csv", "")
//
// Operations return true when the engine reported an error; the engine's
// message has already been printed by then.
//
// The ss7run command (cmd/ss7run) runs job files from the command line.
package ss7kit
