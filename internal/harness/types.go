package harness

import (
	"fmt"

	"github.com/roach88/scanline/internal/ir"
)

// StepResult is what one scenario step produced.
type StepResult struct {
	// Index is the 0-based position of the step in the scenario.
	Index int `json:"index"`

	// Kind is "scan", "assign" or "reset".
	Kind string `json:"kind"`

	// Outcome is nil for non-scan steps and for dropped blank scans.
	Outcome *ir.Outcome `json:"outcome,omitempty"`

	// Progress is the unit's progress after a scan step.
	Progress ir.UnitProgress `json:"progress"`

	// SessionID is the session the step ran in (the new one for a reset).
	SessionID string `json:"session_id"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Trace contains every committed record in commit order, across
	// resets. Records carries only the ledger of the final session.
	Trace   []ir.ScanRecord `json:"trace"`
	Records []ir.ScanRecord `json:"records"`

	// Progress is the tracker state at the end of the run.
	Progress map[string]ir.UnitProgress `json:"progress"`

	// SessionID is the session open at the end of the run.
	SessionID string `json:"session_id"`

	// Persisted is the ledger read back from the store at the end of the run.
	Persisted []ir.ScanRecord `json:"-"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Steps:    []StepResult{},
		Trace:    []ir.ScanRecord{},
		Records:  []ir.ScanRecord{},
		Progress: make(map[string]ir.UnitProgress),
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddErrorf is AddError with formatting.
func (r *Result) AddErrorf(format string, args ...any) {
	r.AddError(fmt.Sprintf(format, args...))
}

// Counts tallies the trace by status.
func (r *Result) Counts() map[ir.Status]int {
	counts := make(map[ir.Status]int, 3)
	for _, rec := range r.Trace {
		counts[rec.Status]++
	}
	return counts
}
