package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/ss7kit/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEngine_RecordsCalls(t *testing.T) {
	mock := engine.NewMockEngine()

	rt, err := mock.Start(context.Background())
	require.NoError(t, err)

	data, err := rt.Open("/p/model.ikn")
	require.NoError(t, err)
	require.NotNil(t, data)

	require.NoError(t, data.Calculate(engine.Result1, engine.StagePreparation))
	require.NoError(t, data.Close())
	require.NoError(t, rt.End())

	assert.Equal(t, []string{"init", "open", "data.calculate", "data.close", "end"}, mock.Methods())
	assert.Equal(t, []string{"結果1", "準備計算"}, mock.CallsTo("data.calculate")[0].Args)
	assert.Equal(t, 1, mock.StartCount())
	assert.Equal(t, 1, mock.EndCount())
}

func TestMockEngine_FailOn(t *testing.T) {
	mock := engine.NewMockEngine().FailOn("data.save", "保存できません")

	rt, err := mock.Start(context.Background())
	require.NoError(t, err)
	data, err := rt.Open("/p/model.ikn")
	require.NoError(t, err)

	require.NoError(t, data.Save())
	info, err := rt.LastError()
	require.NoError(t, err)
	assert.False(t, info.OK)
	assert.Equal(t, "保存できません", info.Message)

	// The record reflects the most recent call only.
	require.NoError(t, data.Restore(engine.Result2))
	info, err = rt.LastError()
	require.NoError(t, err)
	assert.True(t, info.OK)
}

func TestMockEngine_TransportError(t *testing.T) {
	boom := errors.New("broken pipe")
	mock := engine.NewMockEngine().WithTransportError("init", boom)

	_, err := mock.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, mock.StartCount())
}

func TestMockEngine_DeclineOpen(t *testing.T) {
	mock := engine.NewMockEngine().DeclineOpen().FailOn("open", "物件が見つかりません")

	rt, err := mock.Start(context.Background())
	require.NoError(t, err)

	data, err := rt.Open("/p/missing.ikn")
	require.NoError(t, err)
	assert.Nil(t, data)

	info, _ := rt.LastError()
	assert.Equal(t, "物件が見つかりません", info.Message)
}

func TestMockEngine_CancelledStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.NewMockEngine().Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
