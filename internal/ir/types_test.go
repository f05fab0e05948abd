package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusValid.IsValid())
	assert.True(t, StatusDefect.IsValid())
	assert.True(t, StatusError.IsValid())
	assert.False(t, Status("").IsValid())
	assert.False(t, Status("VALID").IsValid())
}

func TestAuxFieldsActiveCount(t *testing.T) {
	var fields AuxFields
	assert.Equal(t, 0, fields.ActiveCount())

	fields[0] = AuxField{Label: "Batch"}
	fields[5] = AuxField{Label: "Color", Default: "Black", HasDefault: true}
	fields[6] = AuxField{Default: "ignored"}
	assert.Equal(t, 2, fields.ActiveCount())
	assert.False(t, fields[6].Active())
}

func TestAuxValuesIsZero(t *testing.T) {
	var v AuxValues
	assert.True(t, v.IsZero())
	v[7] = "x"
	assert.False(t, v.IsZero())
}

func TestAllFailureReasonsComplete(t *testing.T) {
	assert.Len(t, AllFailureReasons, 11)
	seen := make(map[FailureReason]bool)
	for _, r := range AllFailureReasons {
		assert.False(t, seen[r], "duplicate reason %s", r)
		seen[r] = true
	}
}

func TestOutcomeMessage(t *testing.T) {
	valid := Outcome{Kind: StatusValid, Record: ScanRecord{ProductCode: "ABC123"}}
	assert.Equal(t, "OK: ABC123", valid.Message())

	defect := Outcome{Kind: StatusDefect, Record: ScanRecord{ProductCode: "ABC123", DefectCode: "NG01"}}
	assert.Equal(t, "DEFECT NG01: ABC123", defect.Message())

	rejected := Outcome{
		Kind:   StatusError,
		Reason: ReasonPatternMismatch,
		Record: ScanRecord{Note: "wrong model: scan rejected"},
	}
	assert.Equal(t, "wrong model: scan rejected", rejected.Message())
}

func TestUnitProgressString(t *testing.T) {
	assert.Equal(t, "{0,false}", UnitProgress{}.String())
	assert.Equal(t, "{1,true}", UnitProgress{HighestStagePassed: 1, DefectPending: true}.String())
}
