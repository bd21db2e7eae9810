package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Process state.
type processState int

const (
	processStopped processState = iota
	processStarting
	processRunning
	processStopping
)

// stopGrace is how long Stop waits for the script to exit before killing it.
const stopGrace = 5 * time.Second

// Process manages one sidecar process.
type Process struct {
	cfg Config

	mu         sync.RWMutex
	state      processState
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     io.ReadCloser
	stderr     io.ReadCloser
	protocol   *Protocol
	scriptPath string
	tempScript bool
	done       chan struct{} // Closed when process exits
	exitErr    error
}

// NewProcess creates a new sidecar process manager.
func NewProcess(cfg Config) *Process {
	return &Process{
		cfg:   cfg.WithDefaults(),
		state: processStopped,
	}
}

// Start launches the sidecar and initializes the engine.
// ctx bounds startup only; the process outlives it.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != processStopped {
		p.mu.Unlock()
		return fmt.Errorf("sidecar already %s", p.stateString())
	}
	p.state = processStarting
	p.mu.Unlock()

	script, temp, err := resolveScript(p.cfg.SidecarPath)
	if err != nil {
		p.setState(processStopped)
		return err
	}

	cmd := exec.Command(p.cfg.PythonPath, script)
	if p.cfg.WorkDir != "" {
		cmd.Dir = p.cfg.WorkDir
	}
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	for k, v := range p.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	cleanup := func(closers ...io.Closer) {
		for _, c := range closers {
			_ = c.Close()
		}
		if temp {
			_ = os.Remove(script)
		}
		p.setState(processStopped)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cleanup()
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cleanup(stdin)
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cleanup(stdin, stdout)
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cleanup(stdin, stdout, stderr)
		return fmt.Errorf("start sidecar: %w", err)
	}

	proto := NewProtocol(stdout, stdin)
	proto.OnNotification = logNotification

	p.mu.Lock()
	p.cmd = cmd
	p.stdin = stdin
	p.stdout = stdout
	p.stderr = stderr
	p.protocol = proto
	p.scriptPath = script
	p.tempScript = temp
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.waitForExit()
	go p.drainStderr()

	initCtx, cancel := context.WithTimeout(ctx, p.cfg.StartupTimeout)
	defer cancel()

	result, err := p.initialize(initCtx)
	if err != nil {
		p.kill()
		return fmt.Errorf("initialize sidecar: %w", err)
	}

	p.setState(processRunning)
	slog.Debug("sidecar started",
		slog.String("python", p.cfg.PythonPath),
		slog.String("script", script),
		slog.String("version", result.Version))

	return nil
}

// Stop ends the engine and shuts the sidecar down.
// Safe to call more than once.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.state == processStopped || p.state == processStopping {
		p.mu.Unlock()
		return nil
	}
	p.state = processStopping
	p.mu.Unlock()

	endErr := p.end()

	p.mu.RLock()
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	p.mu.RUnlock()

	select {
	case <-p.done:
	case <-time.After(stopGrace):
		p.mu.RLock()
		if p.cmd != nil && p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		p.mu.RUnlock()
		<-p.done
	}

	p.removeScript()
	p.setState(processStopped)
	slog.Debug("sidecar stopped")

	return endErr
}

// IsRunning returns true if the sidecar is running.
func (p *Process) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == processRunning
}

// Protocol returns the JSON-RPC protocol handler.
// Returns nil if the sidecar is not running.
func (p *Process) Protocol() *Protocol {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != processRunning {
		return nil
	}
	return p.protocol
}

// Done returns a channel that's closed when the sidecar process exits.
func (p *Process) Done() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.done
}

// ExitError returns the error from the sidecar process exit, if any.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Call performs one RPC, bounded by the configured request timeout.
func (p *Process) Call(method string, params, result any) error {
	proto := p.Protocol()
	if proto == nil {
		return errors.New("sidecar not running")
	}
	if p.cfg.RequestTimeout <= 0 {
		return proto.Call(method, params, result)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RequestTimeout)
	defer cancel()
	return callContext(ctx, proto, method, params, result)
}

// initialize sends the init RPC, which imports Ss7Python and starts the engine.
func (p *Process) initialize(ctx context.Context) (*InitResult, error) {
	p.mu.RLock()
	proto := p.protocol
	p.mu.RUnlock()

	if proto == nil {
		return nil, errors.New("protocol not initialized")
	}

	var result InitResult
	if err := callContext(ctx, proto, MethodInit, InitParams{Mode: p.cfg.StartMode}, &result); err != nil {
		return nil, err
	}

	if !result.Ready {
		if result.Message != "" {
			return nil, fmt.Errorf("sidecar not ready: %s", result.Message)
		}
		return nil, errors.New("sidecar not ready")
	}

	return &result, nil
}

// end sends the end RPC.
func (p *Process) end() error {
	p.mu.RLock()
	proto := p.protocol
	p.mu.RUnlock()

	if proto == nil {
		return nil
	}

	var result EndResult
	if err := proto.Call(MethodEnd, EndParams{Mode: p.cfg.EndMode}, &result); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("end failed: %s", result.Message)
	}

	return nil
}

// kill force-stops a process whose startup failed.
func (p *Process) kill() {
	p.mu.RLock()
	cmd := p.cmd
	stdin := p.stdin
	done := p.done
	p.mu.RUnlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	if done != nil {
		<-done
	}
	p.removeScript()
	p.setState(processStopped)
}

// waitForExit waits for the process to exit and captures the error.
func (p *Process) waitForExit() {
	p.mu.RLock()
	cmd := p.cmd
	done := p.done
	p.mu.RUnlock()

	if cmd == nil {
		return
	}

	err := cmd.Wait()

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()

	close(done)
}

// drainStderr logs stderr output line by line.
func (p *Process) drainStderr() {
	p.mu.RLock()
	stderr := p.stderr
	p.mu.RUnlock()

	if stderr == nil {
		return
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		slog.Debug("sidecar stderr", slog.String("output", scanner.Text()))
	}
}

func (p *Process) removeScript() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tempScript && p.scriptPath != "" {
		_ = os.Remove(p.scriptPath)
		p.tempScript = false
	}
}

// setState updates the process state.
func (p *Process) setState(state processState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// stateString returns a human-readable state string.
func (p *Process) stateString() string {
	switch p.state {
	case processStopped:
		return "stopped"
	case processStarting:
		return "starting"
	case processRunning:
		return "running"
	case processStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// callContext runs a Call in a goroutine so ctx can bound the wait.
// An abandoned call keeps the read lock until its own response arrives.
func callContext(ctx context.Context, proto *Protocol, method string, params, result any) error {
	type outcome struct {
		raw json.RawMessage
		err error
	}

	// The call decodes into its own buffer. result is only written once the
	// call has won, so an abandoned call never touches it.
	done := make(chan outcome, 1)
	go func() {
		var raw json.RawMessage
		err := proto.Call(method, params, &raw)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case o := <-done:
		if o.err != nil || result == nil || len(o.raw) == 0 {
			return o.err
		}
		if err := json.Unmarshal(o.raw, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
		return nil
	}
}

// logNotification forwards sidecar log notifications to slog.
func logNotification(n Notification) {
	if n.Method != notificationLog {
		return
	}
	params, err := ParseLog(n.Params)
	if err != nil {
		return
	}
	switch params.Level {
	case "error":
		slog.Warn("sidecar", slog.String("message", params.Message))
	default:
		slog.Debug("sidecar", slog.String("message", params.Message))
	}
}
