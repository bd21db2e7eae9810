package engine

import "context"

// Engine starts SS7 engine runtimes.
// Each Start call initializes and starts the engine once and hands the caller
// ownership of the resulting Runtime, which must be ended with Runtime.End.
// Overlapping runtimes against the same engine installation are unsupported.
type Engine interface {
	// Start initializes and starts the engine.
	// A returned error means the engine could not be reached at all;
	// engine-side start failures are reported by Runtime.LastError.
	Start(ctx context.Context) (Runtime, error)
}

// Runtime is one started engine.
type Runtime interface {
	// Open opens an .ikn project directory. A nil Data with a nil error means
	// the engine declined to open it; LastError carries the reason.
	Open(path string) (Data, error)

	// CreateDataCSV converts an SS7 input CSV into a project at dst and
	// returns the path the engine actually wrote.
	CreateDataCSV(src, dst string) (string, error)

	// LastError returns the engine's error record for the most recent call.
	LastError() (ErrInfo, error)

	// End shuts the engine down. The Runtime is unusable afterwards.
	End() error
}

// Data is one opened project.
type Data interface {
	Calculate(result ResultSlot, stage Stage) error
	Save() error
	Restore(result ResultSlot) error
	DeleteResult(result ResultSlot) error
	CreateDocument(result ResultSlot, path string) error
	ExportInputCSV(result ResultSlot, path string) error

	// ExportResultCSV writes results to path. An empty outputs exports every
	// output item.
	ExportResultCSV(result ResultSlot, path, outputs string) error

	ExportCAD7(result ResultSlot, path string) error

	// Close releases the project. Callers save first if they want to keep
	// changes.
	Close() error
}
