package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for identifier parsing.
var (
	// ErrUnknownResult indicates a result slot name the engine does not know.
	ErrUnknownResult = errors.New("unknown result slot")

	// ErrUnknownStage indicates a calculation stage name the engine does not know.
	ErrUnknownStage = errors.New("unknown calculation stage")
)

// ResultSlot identifies one of the five stored analysis results.
type ResultSlot string

// The five result slots.
const (
	Result1 ResultSlot = "結果1"
	Result2 ResultSlot = "結果2"
	Result3 ResultSlot = "結果3"
	Result4 ResultSlot = "結果4"
	Result5 ResultSlot = "結果5"
)

// ResultSlots returns all result slots in engine order.
func ResultSlots() []ResultSlot {
	return []ResultSlot{Result1, Result2, Result3, Result4, Result5}
}

// Valid reports whether r is one of the five result slots.
func (r ResultSlot) Valid() bool {
	switch r {
	case Result1, Result2, Result3, Result4, Result5:
		return true
	}
	return false
}

// Alias returns the ASCII alias of r, or "" if r is not valid.
func (r ResultSlot) Alias() string {
	for i, slot := range ResultSlots() {
		if slot == r {
			return fmt.Sprintf("result%d", i+1)
		}
	}
	return ""
}

// String implements fmt.Stringer.
func (r ResultSlot) String() string {
	return string(r)
}

// ParseResultSlot converts an engine name ("結果1") or ASCII alias ("result1")
// to a ResultSlot.
func ParseResultSlot(s string) (ResultSlot, error) {
	for _, slot := range ResultSlots() {
		if s == string(slot) || s == slot.Alias() {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResult, s)
}

// Stage identifies one of the nine calculation phases.
// No ordering is enforced; callers run stages in the order the engine needs.
type Stage string

// The nine calculation stages.
const (
	StagePreparation                Stage = "準備計算"
	StagePrimaryStress              Stage = "応力解析(一次)"
	StageEccentricityStiffness      Stage = "偏心率・剛性率"
	StageFoundationStress           Stage = "基礎による応力"
	StageSectionDesign              Stage = "断面算定"
	StageCapacity                   Stage = "耐力計算"
	StageSecondaryStress            Stage = "応力解析(二次)"
	StageRequiredHorizontalCapacity Stage = "必要保有水平耐力"
	StageQuantityTakeoff            Stage = "積算"
)

var stageAliases = map[Stage]string{
	StagePreparation:                "preparation",
	StagePrimaryStress:              "primary-stress",
	StageEccentricityStiffness:      "eccentricity-stiffness",
	StageFoundationStress:           "foundation-stress",
	StageSectionDesign:              "section-design",
	StageCapacity:                   "capacity",
	StageSecondaryStress:            "secondary-stress",
	StageRequiredHorizontalCapacity: "required-horizontal-capacity",
	StageQuantityTakeoff:            "quantity-takeoff",
}

// Stages returns all calculation stages in the order the engine lists them.
func Stages() []Stage {
	return []Stage{
		StagePreparation,
		StagePrimaryStress,
		StageEccentricityStiffness,
		StageFoundationStress,
		StageSectionDesign,
		StageCapacity,
		StageSecondaryStress,
		StageRequiredHorizontalCapacity,
		StageQuantityTakeoff,
	}
}

// Valid reports whether s is one of the nine stages.
func (s Stage) Valid() bool {
	_, ok := stageAliases[s]
	return ok
}

// Alias returns the ASCII alias of s, or "" if s is not valid.
func (s Stage) Alias() string {
	return stageAliases[s]
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}

// ParseStage converts an engine name ("準備計算") or ASCII alias
// ("preparation") to a Stage.
func ParseStage(s string) (Stage, error) {
	for stage, alias := range stageAliases {
		if s == string(stage) || s == alias {
			return stage, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// ErrInfo is the engine's record of the most recent call.
type ErrInfo struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// NoError is the ErrInfo reported after a successful call.
var NoError = ErrInfo{OK: true}
