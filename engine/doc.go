// Package engine defines the contract between ss7kit and the SS7 analysis engine.
//
// The engine itself is closed source and only reachable through its Python
// scripting module. This package describes what ss7kit needs from it as three
// small interfaces, so the session façade never depends on how the engine is
// reached:
//
//	Engine  --Start-->  Runtime  --Open/CreateDataCSV-->  Data
//
// An Engine produces one owned Runtime per Start call. The Runtime is the
// process-wide engine state (init + start ... end); Data is one opened
// project. Engine-side failures are not returned as Go errors: the engine
// records them and Runtime.LastError reports the most recent one. Go errors
// returned by these interfaces mean the binding itself failed (broken pipe,
// dead sidecar).
//
// # Identifiers
//
// ResultSlot and Stage are the fixed identifiers the engine understands. Their
// string values are the engine's own names and are sent as-is:
//
//	engine.Result1          // "結果1"
//	engine.StagePreparation // "準備計算"
//
// ParseResultSlot and ParseStage accept either the engine name or an ASCII
// alias, which is convenient in job files and on the command line.
//
// # Testing
//
// MockEngine is an in-memory Engine that records every call and can be told
// to fail specific operations:
//
//	eng := engine.NewMockEngine().FailOn("data.calculate", "応力解析エラー")
//	sess, err := session.New(ctx, eng, "model.ikn")
package engine
