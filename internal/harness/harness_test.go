package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func twoStageScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name: "two_stage",
		Stages: []StageSpec{
			{Name: "Assembly"},
			{Name: "Packing"},
		},
		Session:     SessionSpec{Model: "X100", Patterns: "ABC", Shift: "DAY"},
		Assignments: map[int]string{1: "EMP-01", 2: "EMP-02"},
		Steps:       steps,
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := twoStageScenario(Step{
		Code:   "ABC123",
		Stage:  1,
		Expect: &ExpectClause{Status: "valid", Progress: &ProgressSpec{Highest: 1}},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	rec := result.Trace[0]
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "test-session-0001", rec.SessionID)
	assert.Equal(t, "EMP-01", rec.EmployeeID)
	assert.Equal(t, "2024-03-04 08:00:00", ir.FormatTimestamp(rec.Timestamp))
	assert.Equal(t, ir.UnitProgress{HighestStagePassed: 1}, result.Progress["ABC123"])
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := twoStageScenario(
		Step{Code: "ABC123", Stage: 2, Expect: &ExpectClause{Status: "valid"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected status valid, got error")
	assert.Contains(t, result.Errors[1], `expected reason "", got "OUT_OF_SEQUENCE"`)
}

func TestRun_ProgressMismatchFails(t *testing.T) {
	scenario := twoStageScenario(Step{
		Code:   "ABC123",
		Stage:  1,
		Expect: &ExpectClause{Status: "valid", Progress: &ProgressSpec{Highest: 2}},
	})

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected progress {2,false}, got {1,false}")
}

func TestRun_DroppedBlankScan(t *testing.T) {
	scenario := twoStageScenario(
		Step{Code: "  ", Stage: 1, Expect: &ExpectClause{Dropped: true}},
		Step{Code: "ABC1", Stage: 1},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Steps, 2)
	assert.Nil(t, result.Steps[0].Outcome)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
}

func TestRun_AssignAndReset(t *testing.T) {
	scenario := twoStageScenario(
		Step{Code: "ABC1", Stage: 1},
		Step{Assign: &AssignStep{Stage: 2, Employee: ""}},
		Step{Code: "ABC1", Stage: 2, Expect: &ExpectClause{Status: "error", Reason: "MISSING_EMPLOYEE"}},
		Step{Assign: &AssignStep{Stage: 2, Employee: "EMP-22"}},
		Step{Code: "ABC1", Stage: 2, Expect: &ExpectClause{Status: "valid"}},
		Step{Reset: true},
		Step{Code: "ABC1", Stage: 1, Expect: &ExpectClause{Status: "valid", Progress: &ProgressSpec{Highest: 1}}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	assert.Len(t, result.Trace, 4)
	assert.Equal(t, "EMP-22", result.Trace[2].EmployeeID)

	// only the post-reset ledger survives
	require.Len(t, result.Records, 1)
	assert.Equal(t, "test-session-0002", result.SessionID)
	assert.Equal(t, "test-session-0002", result.Records[0].SessionID)
	assert.Equal(t, int64(1), result.Records[0].Seq)

	assert.Equal(t, StepReset, result.Steps[5].Kind)
	assert.Equal(t, "test-session-0002", result.Steps[5].SessionID)
}

func TestRun_PersistedLedgerMatches(t *testing.T) {
	scenario := twoStageScenario(
		Step{Code: "ABC1", Stage: 1},
		Step{Code: "ABC1", Stage: 1},
		Step{Code: "ABC2", Stage: 2},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	want, err := ir.LedgerDigest(result.Records)
	require.NoError(t, err)
	got, err := ir.LedgerDigest(result.Persisted)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_UnknownStageIsError(t *testing.T) {
	scenario := twoStageScenario(Step{Code: "ABC1", Stage: 7})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
}

func TestRun_InvalidRegistry(t *testing.T) {
	scenario := twoStageScenario(Step{Code: "ABC1", Stage: 1})
	scenario.Stages = []StageSpec{{Name: "  "}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage registry")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "reset_and_assign.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewLedgerSnapshot(scenario.Name, first).MarshalCanonical()
	require.NoError(t, err)
	b, err := NewLedgerSnapshot(scenario.Name, second).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestResult_Counts(t *testing.T) {
	scenario := twoStageScenario(
		Step{Code: "ABC1", Stage: 1},
		Step{Code: "ABC1", Stage: 1},
		Step{Code: "ABC1", Stage: 2, Defect: "NG01"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	counts := result.Counts()
	assert.Equal(t, 1, counts[ir.StatusValid])
	assert.Equal(t, 1, counts[ir.StatusError])
	assert.Equal(t, 1, counts[ir.StatusDefect])
}
