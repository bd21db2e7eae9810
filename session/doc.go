// Package session provides a simplified, error-checked façade over one SS7
// project.
//
// A Session starts the engine, opens a project and exposes the handful of
// operations scripts actually need: run a calculation stage, save, restore or
// delete a result, and export documents, CSV and CAD data.
//
//	sess, err := session.New(ctx, sidecar.New(), "building.ikn")
//	if err != nil {
//	    log.Fatal(err) // the engine could not be started
//	}
//	defer sess.Close()
//
//	if sess.Calculate(engine.Result1, engine.StagePreparation) {
//	    return // the engine's message has been printed
//	}
//	sess.ExportResultCSV(engine.Result1, "out/result1.csv", "")
//
// # Inputs
//
// New accepts an .ikn project directory, which is opened directly, or an SS7
// input .csv file, which is first converted into a sibling .ikn project and
// then opened. Any other path yields an inert session: every operation is
// skipped and reports success.
//
// # Errors
//
// Apart from a failed engine start, nothing is returned as a Go error. Every
// operation reports whether the engine recorded an error, and prints the
// engine's message to the session's output (stdout unless WithOutput is
// used).
//
// # Paths
//
// The engine changes the process working directory while it runs. Relative
// paths are therefore resolved against the working directory captured when
// the Session was created, never the current one.
package session
