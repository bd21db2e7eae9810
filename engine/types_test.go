package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSlots_FixedSet(t *testing.T) {
	slots := ResultSlots()
	require.Len(t, slots, 5)
	for _, slot := range slots {
		assert.True(t, slot.Valid(), "slot %q should be valid", slot)
	}
	assert.False(t, ResultSlot("結果6").Valid())
	assert.False(t, ResultSlot("").Valid())
}

func TestParseResultSlot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ResultSlot
		wantErr bool
	}{
		{name: "engine name", input: "結果1", want: Result1},
		{name: "alias", input: "result3", want: Result3},
		{name: "alias is case-sensitive", input: "Result5", wantErr: true},
		{name: "surrounding space", input: " 結果2 ", wantErr: true},
		{name: "out of range", input: "result6", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResultSlot(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownResult))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResultSlot_Alias(t *testing.T) {
	assert.Equal(t, "result1", Result1.Alias())
	assert.Equal(t, "result5", Result5.Alias())
	assert.Equal(t, "", ResultSlot("x").Alias())
}

func TestStages_FixedSet(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 9)

	seen := make(map[string]bool)
	for _, stage := range stages {
		assert.True(t, stage.Valid(), "stage %q should be valid", stage)
		alias := stage.Alias()
		assert.NotEmpty(t, alias)
		assert.False(t, seen[alias], "duplicate alias %q", alias)
		seen[alias] = true
	}
	assert.False(t, Stage("解析").Valid())
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Stage
		wantErr bool
	}{
		{name: "engine name", input: "準備計算", want: StagePreparation},
		{name: "engine name with parens", input: "応力解析(二次)", want: StageSecondaryStress},
		{name: "alias", input: "section-design", want: StageSectionDesign},
		{name: "alias upper", input: "QUANTITY-TAKEOFF", wantErr: true},
		{name: "unknown", input: "応力解析", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownStage))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
