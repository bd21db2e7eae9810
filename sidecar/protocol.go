package sidecar

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/ss7kit/engine"
)

// JSON-RPC 2.0 protocol types for sidecar communication.

const jsonrpcVersion = "2.0"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// Notification is a JSON-RPC 2.0 notification received from the sidecar.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error %d: %s (data: %s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// CodeScriptError is returned when the sidecar script raised a Python exception.
const CodeScriptError = -32000

// Method names understood by the sidecar.
const (
	MethodInit            = "init"
	MethodLastError       = "last_error"
	MethodOpen            = "open"
	MethodCreateDataCSV   = "create_data_csv"
	MethodCalculate       = "data.calculate"
	MethodSave            = "data.save"
	MethodRestore         = "data.restore"
	MethodDeleteResult    = "data.delete_result"
	MethodCreateDocument  = "data.create_document"
	MethodExportInputCSV  = "data.export_input_csv"
	MethodExportResultCSV = "data.export_result_csv"
	MethodExportCAD7      = "data.export_cad7"
	MethodClose           = "data.close"
	MethodEnd             = "end"

	notificationLog = "log"
)

// InitParams are the parameters for the "init" RPC method.
type InitParams struct {
	Mode int `json:"mode"`
}

// InitResult is the result of the "init" RPC call.
type InitResult struct {
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

// OpenParams are the parameters for the "open" RPC method.
type OpenParams struct {
	Path   string `json:"path"`
	Mode   int    `json:"mode"`
	Option int    `json:"option"`
}

// OpenResult is the result of the "open" RPC call.
type OpenResult struct {
	Opened bool  `json:"opened"`
	DataID int64 `json:"data_id,omitempty"`
}

// ConvertParams are the parameters for the "create_data_csv" RPC method.
type ConvertParams struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Mode int    `json:"mode"`
}

// PathResult carries a path written by the engine.
type PathResult struct {
	Path string `json:"path"`
}

// DataParams are the parameters for every "data.*" RPC method.
// Fields a method does not use are omitted.
type DataParams struct {
	DataID  int64             `json:"data_id"`
	Result  engine.ResultSlot `json:"result,omitempty"`
	Stage   engine.Stage      `json:"stage,omitempty"`
	Path    string            `json:"path,omitempty"`
	Outputs string            `json:"outputs,omitempty"`
	Mode    int               `json:"mode,omitempty"`
}

// EndParams are the parameters for the "end" RPC method.
type EndParams struct {
	Mode int `json:"mode"`
}

// EndResult is the result of the "end" RPC call.
type EndResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LogParams are the parameters of a "log" notification.
type LogParams struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Protocol handles JSON-RPC encoding/decoding over stdio.
type Protocol struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex // Protects writer
	readMu  sync.Mutex // Protects reader
	nextID  int64

	// OnNotification, if set, receives notifications read while waiting for
	// a response.
	OnNotification func(Notification)
}

// NewProtocol creates a new JSON-RPC protocol handler.
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	return &Protocol{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Call sends a request and waits for a response.
// The result is unmarshaled into the provided value.
// Concurrent callers are serialized on the read side.
func (p *Protocol) Call(method string, params, result any) error {
	id := atomic.AddInt64(&p.nextID, 1)

	req := Request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}

	if err := p.send(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	p.readMu.Lock()
	defer p.readMu.Unlock()

	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		var msg struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(line, &msg); err != nil {
			return fmt.Errorf("parse message: %w", err)
		}

		if msg.ID == nil {
			p.dispatch(line)
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		// Stale response from a call abandoned after a timeout.
		if resp.ID != id {
			continue
		}

		if resp.Error != nil {
			return resp.Error
		}

		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}
}

// send marshals and writes a message.
func (p *Protocol) send(msg any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	_, err = p.writer.Write(data)
	return err
}

// dispatch hands a notification line to OnNotification.
// Lines that are not valid notifications (e.g. an error response without an
// id) are dropped.
func (p *Protocol) dispatch(line []byte) {
	if p.OnNotification == nil {
		return
	}
	var notif Notification
	if err := json.Unmarshal(line, &notif); err != nil || notif.Method == "" {
		return
	}
	p.OnNotification(notif)
}

// ParseLog parses the payload of a "log" notification.
func ParseLog(data json.RawMessage) (*LogParams, error) {
	var params LogParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}
