package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ss7kit/engine"
)

// fakeCaller records RPCs and answers from a table of canned results.
type fakeCaller struct {
	calls   []fakeCall
	results map[string]string
	errs    map[string]error
	stopped int
}

type fakeCall struct {
	method string
	params string
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{results: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(method string, params, result any) error {
	raw, _ := json.Marshal(params)
	f.calls = append(f.calls, fakeCall{method: method, params: string(raw)})
	if err := f.errs[method]; err != nil {
		return err
	}
	if body, ok := f.results[method]; ok && result != nil {
		return json.Unmarshal([]byte(body), result)
	}
	return nil
}

func (f *fakeCaller) Stop() error {
	f.stopped++
	return nil
}

func TestRuntime_Open(t *testing.T) {
	fc := newFakeCaller()
	fc.results[MethodOpen] = `{"opened":true,"data_id":5}`
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	d, err := rt.Open("/work/model.ikn")
	require.NoError(t, err)
	require.NotNil(t, d)

	require.NoError(t, d.Calculate(engine.Result2, engine.StageSectionDesign))
	require.Len(t, fc.calls, 2)
	assert.JSONEq(t, `{"path":"/work/model.ikn","mode":2,"option":2}`, fc.calls[0].params)
	assert.Equal(t, MethodCalculate, fc.calls[1].method)
	assert.JSONEq(t, `{"data_id":5,"result":"結果2","stage":"断面算定"}`, fc.calls[1].params)
}

func TestRuntime_ConfiguredModes(t *testing.T) {
	fc := newFakeCaller()
	fc.results[MethodOpen] = `{"opened":true,"data_id":1}`
	cfg := DefaultConfig()
	cfg.OpenMode, cfg.OpenOption, cfg.CSVMode = 3, 1, 4
	rt := &runtime{proc: fc, cfg: cfg}

	_, err := rt.CreateDataCSV("/work/a.csv", "/work/a.ikn")
	require.NoError(t, err)
	_, err = rt.Open("/work/a.ikn")
	require.NoError(t, err)

	require.Len(t, fc.calls, 2)
	assert.JSONEq(t, `{"src":"/work/a.csv","dst":"/work/a.ikn","mode":4}`, fc.calls[0].params)
	assert.JSONEq(t, `{"path":"/work/a.ikn","mode":3,"option":1}`, fc.calls[1].params)
}

func TestRuntime_Open_Declined(t *testing.T) {
	fc := newFakeCaller()
	fc.results[MethodOpen] = `{"opened":false}`
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	d, err := rt.Open("/work/broken.ikn")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestRuntime_Open_TransportError(t *testing.T) {
	fc := newFakeCaller()
	fc.errs[MethodOpen] = errors.New("read response: EOF")
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	d, err := rt.Open("/work/model.ikn")
	assert.Error(t, err)
	assert.Nil(t, d)
}

func TestRuntime_CreateDataCSV(t *testing.T) {
	fc := newFakeCaller()
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	// No path in the result falls back to the requested destination.
	got, err := rt.CreateDataCSV("/work/a.csv", "/work/a.ikn")
	require.NoError(t, err)
	assert.Equal(t, "/work/a.ikn", got)

	fc.results[MethodCreateDataCSV] = `{"path":"/work/A.ikn"}`
	got, err = rt.CreateDataCSV("/work/a.csv", "/work/a.ikn")
	require.NoError(t, err)
	assert.Equal(t, "/work/A.ikn", got)
}

func TestRuntime_LastError(t *testing.T) {
	fc := newFakeCaller()
	fc.results[MethodLastError] = `{"ok":false,"message":"計算できません"}`
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	info, err := rt.LastError()
	require.NoError(t, err)
	assert.False(t, info.OK)
	assert.Equal(t, "計算できません", info.Message)
}

func TestRuntime_End(t *testing.T) {
	fc := newFakeCaller()
	rt := &runtime{proc: fc, cfg: DefaultConfig()}

	require.NoError(t, rt.End())
	assert.Equal(t, 1, fc.stopped)
}

func TestData_Methods(t *testing.T) {
	fc := newFakeCaller()
	d := &data{proc: fc, id: 1, closeMode: 2}

	require.NoError(t, d.Save())
	require.NoError(t, d.Restore(engine.Result1))
	require.NoError(t, d.DeleteResult(engine.Result3))
	require.NoError(t, d.CreateDocument(engine.Result1, "/out/doc.pdf"))
	require.NoError(t, d.ExportInputCSV(engine.Result1, "/out/in.csv"))
	require.NoError(t, d.ExportResultCSV(engine.Result1, "/out/res.csv", "部材応力"))
	require.NoError(t, d.ExportCAD7(engine.Result1, "/out/model.c7"))
	require.NoError(t, d.Close())

	methods := make([]string, len(fc.calls))
	for i, c := range fc.calls {
		methods[i] = c.method
	}
	assert.Equal(t, []string{
		MethodSave, MethodRestore, MethodDeleteResult, MethodCreateDocument,
		MethodExportInputCSV, MethodExportResultCSV, MethodExportCAD7, MethodClose,
	}, methods)

	assert.JSONEq(t, `{"data_id":1,"result":"結果1","path":"/out/res.csv","outputs":"部材応力"}`, fc.calls[5].params)
	assert.JSONEq(t, `{"data_id":1,"mode":2}`, fc.calls[7].params)
}

func TestEngine_Start_InvalidConfig(t *testing.T) {
	e := NewWithConfig(Config{StartupTimeout: -time.Second})

	_, err := e.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestEngine_Start_MissingScript(t *testing.T) {
	e := New(WithSidecarPath(filepath.Join(t.TempDir(), "nope.py")))

	_, err := e.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestEngine_FakeSs7Python runs the bundled script against testdata/Ss7Python.py.
func TestEngine_FakeSs7Python(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	testdata, err := filepath.Abs("testdata")
	require.NoError(t, err)

	e := New(
		WithPythonPath(python),
		WithEnv(map[string]string{"PYTHONPATH": testdata}),
		WithStartupTimeout(20*time.Second),
		WithRequestTimeout(20*time.Second),
	)

	rt, err := e.Start(context.Background())
	require.NoError(t, err)

	info, err := rt.LastError()
	require.NoError(t, err)
	assert.True(t, info.OK)

	d, err := rt.Open("/work/model.ikn")
	require.NoError(t, err)
	require.NotNil(t, d)

	require.NoError(t, d.Calculate(engine.Result1, engine.StagePreparation))
	info, err = rt.LastError()
	require.NoError(t, err)
	assert.True(t, info.OK)

	// The fake engine rejects unknown stages the way SS7 does.
	require.NoError(t, d.Calculate(engine.Result1, engine.Stage("解析")))
	info, err = rt.LastError()
	require.NoError(t, err)
	assert.False(t, info.OK)
	assert.Contains(t, info.Message, "解析")

	missing, err := rt.Open("/work/missing.ikn")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, d.Close())
	require.NoError(t, rt.End())
}
