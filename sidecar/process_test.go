package sidecar

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallContext(t *testing.T) {
	response := `{"jsonrpc":"2.0","result":{"path":"a.ikn"},"id":1}` + "\n"
	pr, pw := io.Pipe()
	defer pw.Close()
	go func() { _, _ = io.WriteString(pw, response) }()

	proto := NewProtocol(pr, io.Discard)

	var result PathResult
	require.NoError(t, callContext(context.Background(), proto, MethodCreateDataCSV, ConvertParams{Src: "a.csv", Dst: "a.ikn"}, &result))
	assert.Equal(t, "a.ikn", result.Path)
}

func TestCallContext_TimeoutLeavesResultUntouched(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	proto := NewProtocol(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var late PathResult
	err := callContext(ctx, proto, MethodCreateDataCSV, ConvertParams{Src: "a.csv", Dst: "a.ikn"}, &late)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned call's response arrives after the caller gave up.
	go func() {
		_, _ = io.WriteString(pw,
			`{"jsonrpc":"2.0","result":{"path":"late.ikn"},"id":1}`+"\n"+
				`{"jsonrpc":"2.0","result":{"path":"next.ikn"},"id":2}`+"\n")
	}()

	// Waits on the read lock until the abandoned call has consumed its line.
	var next PathResult
	require.NoError(t, proto.Call(MethodCreateDataCSV, ConvertParams{Src: "b.csv", Dst: "b.ikn"}, &next))

	assert.Equal(t, "next.ikn", next.Path)
	assert.Empty(t, late.Path)
}

func TestCallContext_RPCError(t *testing.T) {
	response := `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"},"id":1}` + "\n"
	pr, pw := io.Pipe()
	defer pw.Close()
	go func() { _, _ = io.WriteString(pw, response) }()

	proto := NewProtocol(pr, io.Discard)

	var result PathResult
	err := callContext(context.Background(), proto, "missing", nil, &result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
	assert.Empty(t, result.Path)
}
