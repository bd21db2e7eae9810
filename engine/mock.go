package engine

import (
	"context"
	"errors"
	"sync"
)

// Call records one invocation made against a MockEngine.
type Call struct {
	Method string
	Args   []string
}

// MockEngine is a test double for Engine.
// It records every call, supports engine-side failures (reported through
// LastError) and binding failures (returned as Go errors), and can run a hook
// on each call, e.g. to emulate the engine changing the process directory.
type MockEngine struct {
	mu        sync.Mutex
	calls     []Call
	failures  map[string]string
	transport map[string]error
	declined  bool
	lastErr   ErrInfo
	starts    int
	ends      int
	onCall    func(method string)
}

// NewMockEngine creates a mock whose calls all succeed.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		failures:  make(map[string]string),
		transport: make(map[string]error),
		lastErr:   NoError,
	}
}

// FailOn makes every call to method leave message in the engine error record.
// Method names follow the sidecar protocol: "init", "open",
// "create_data_csv", "data.calculate", "data.save", and so on.
func (m *MockEngine) FailOn(method, message string) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = message
	return m
}

// WithTransportError makes every call to method return err.
func (m *MockEngine) WithTransportError(method string, err error) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transport[method] = err
	return m
}

// DeclineOpen makes Open return no data, as the engine does for unreadable
// projects. Combine with FailOn("open", ...) to set the message.
func (m *MockEngine) DeclineOpen() *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declined = true
	return m
}

// OnCall registers fn to run after each recorded call.
func (m *MockEngine) OnCall(fn func(method string)) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCall = fn
	return m
}

// Calls returns a copy of every recorded call.
func (m *MockEngine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Methods returns the method names of every recorded call, in order.
func (m *MockEngine) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Method)
	}
	return out
}

// CallsTo returns the recorded calls of one method.
func (m *MockEngine) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// StartCount returns how many runtimes were started.
func (m *MockEngine) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// EndCount returns how many runtimes were ended.
func (m *MockEngine) EndCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ends
}

// Start implements Engine.
func (m *MockEngine) Start(ctx context.Context) (Runtime, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if err := m.record("init"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()
	return &mockRuntime{m: m}, nil
}

// record logs a call, applies configured failures and runs the hook.
func (m *MockEngine) record(method string, args ...string) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
	hook := m.onCall
	err := m.transport[method]
	if msg, ok := m.failures[method]; ok {
		m.lastErr = ErrInfo{OK: false, Message: msg}
	} else {
		m.lastErr = NoError
	}
	m.mu.Unlock()

	if hook != nil {
		hook(method)
	}
	return err
}

type mockRuntime struct {
	m     *MockEngine
	ended bool
}

func (r *mockRuntime) Open(path string) (Data, error) {
	if r.ended {
		return nil, errors.New("runtime ended")
	}
	if err := r.m.record("open", path); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	declined := r.m.declined
	r.m.mu.Unlock()
	if declined {
		return nil, nil
	}
	return &mockData{m: r.m, path: path}, nil
}

func (r *mockRuntime) CreateDataCSV(src, dst string) (string, error) {
	if err := r.m.record("create_data_csv", src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// LastError is not recorded as a call; it only reads the error state.
func (r *mockRuntime) LastError() (ErrInfo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.lastErr, nil
}

func (r *mockRuntime) End() error {
	err := r.m.record("end")
	r.ended = true
	r.m.mu.Lock()
	r.m.ends++
	r.m.mu.Unlock()
	return err
}

type mockData struct {
	m    *MockEngine
	path string
}

func (d *mockData) Calculate(result ResultSlot, stage Stage) error {
	return d.m.record("data.calculate", string(result), string(stage))
}

func (d *mockData) Save() error {
	return d.m.record("data.save")
}

func (d *mockData) Restore(result ResultSlot) error {
	return d.m.record("data.restore", string(result))
}

func (d *mockData) DeleteResult(result ResultSlot) error {
	return d.m.record("data.delete_result", string(result))
}

func (d *mockData) CreateDocument(result ResultSlot, path string) error {
	return d.m.record("data.create_document", string(result), path)
}

func (d *mockData) ExportInputCSV(result ResultSlot, path string) error {
	return d.m.record("data.export_input_csv", string(result), path)
}

func (d *mockData) ExportResultCSV(result ResultSlot, path, outputs string) error {
	return d.m.record("data.export_result_csv", string(result), path, outputs)
}

func (d *mockData) ExportCAD7(result ResultSlot, path string) error {
	return d.m.record("data.export_cad7", string(result), path)
}

func (d *mockData) Close() error {
	return d.m.record("data.close", d.path)
}
