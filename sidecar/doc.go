// Package sidecar implements engine.Engine on top of a Python sidecar process.
//
// The SS7 engine is only scriptable through its CPython module Ss7Python.
// This package starts a small Python script next to the Go process and talks
// to it with JSON-RPC 2.0 over stdio, one message per line:
//
//	Go (sidecar.Engine) <--JSON-RPC/stdio--> ss7_sidecar.py <--Ss7Python--> SS7
//
// Each engine.Runtime returned by Engine.Start owns exactly one sidecar
// process. The process is initialized with the init method (Ss7Python.Init
// and Ss7Python.Start) and torn down with the end method (Ss7Python.End),
// after which the script exits.
//
// # Usage
//
//	eng := sidecar.New(
//	    sidecar.WithPythonPath(`C:\Python39\python.exe`),
//	    sidecar.WithStartupTimeout(time.Minute),
//	)
//	sess, err := session.New(ctx, eng, "building.ikn")
//
// When no sidecar path is configured the bundled script is written to a
// temporary file and removed again when the process stops.
//
// # Protocol
//
// Request (Go -> sidecar):
//
//	{"jsonrpc": "2.0", "method": "data.calculate", "params": {"data_id": 1, "result": "結果1", "stage": "準備計算"}, "id": 7}
//
// Response (sidecar -> Go):
//
//	{"jsonrpc": "2.0", "result": null, "id": 7}
//
// The sidecar may interleave log notifications, which are forwarded to slog:
//
//	{"jsonrpc": "2.0", "method": "log", "params": {"level": "error", "message": "..."}}
//
// Engine-side failures do not produce RPC errors; the engine records them and
// the last_error method reports them. RPC errors mean the script itself
// failed, e.g. an unknown data handle or a Python exception.
package sidecar
