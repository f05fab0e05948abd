package harness

import (
	"fmt"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

// assertProgress checks the final progress of one unit.
func assertProgress(result *Result, a Assertion) error {
	got, seen := result.Progress[a.Code]
	if a.Untouched {
		if seen {
			return &AssertionError{
				Type:     AssertProgress,
				Expected: fmt.Sprintf("%s never progressed", a.Code),
				Actual:   got.String(),
			}
		}
		return nil
	}

	want := ir.UnitProgress{HighestStagePassed: a.Highest, DefectPending: a.Pending}
	if got != want {
		return &AssertionError{
			Type:     AssertProgress,
			Expected: fmt.Sprintf("%s at %s", a.Code, want),
			Actual:   got.String(),
		}
	}
	return nil
}

// assertStats checks the counters of one stage over the final ledger.
// The error count is global, matching engine.Aggregate.
func assertStats(result *Result, a Assertion) error {
	got := engine.Aggregate(result.Records, ir.StageID(a.Stage))
	want := engine.Stats{Stage: ir.StageID(a.Stage), Success: a.Success, Defect: a.Defect, Error: a.Error}
	if got != want {
		return &AssertionError{
			Type:     AssertStats,
			Expected: formatStats(want),
			Actual:   formatStats(got),
		}
	}
	return nil
}

func formatStats(s engine.Stats) string {
	return fmt.Sprintf("stage %d success=%d defect=%d error=%d", s.Stage, s.Success, s.Defect, s.Error)
}

func assertLedgerCount(result *Result, a Assertion) error {
	if len(result.Records) != a.Count {
		return &AssertionError{
			Type:     AssertLedgerCount,
			Expected: fmt.Sprintf("%d records", a.Count),
			Actual:   fmt.Sprintf("%d records", len(result.Records)),
		}
	}
	return nil
}

func assertReasonCount(result *Result, a Assertion) error {
	n := 0
	for _, rec := range result.Records {
		if string(rec.Reason) == a.Reason {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertReasonCount,
			Expected: fmt.Sprintf("%d x %s", a.Count, a.Reason),
			Actual:   fmt.Sprintf("%d x %s", n, a.Reason),
		}
	}
	return nil
}

func assertStatusCount(result *Result, a Assertion) error {
	n := 0
	for _, rec := range result.Records {
		if string(rec.Status) == a.Status {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertStatusCount,
			Expected: fmt.Sprintf("%d x %s", a.Count, a.Status),
			Actual:   fmt.Sprintf("%d x %s", n, a.Status),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertProgress:
			err = assertProgress(result, assertion)
		case AssertStats:
			err = assertStats(result, assertion)
		case AssertLedgerCount:
			err = assertLedgerCount(result, assertion)
		case AssertReasonCount:
			err = assertReasonCount(result, assertion)
		case AssertStatusCount:
			err = assertStatusCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
