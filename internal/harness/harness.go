package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/store"
	"github.com/roach88/scanline/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a real Station journaled to an in-memory
// store, with a deterministic clock and session ids.
type Harness struct {
	store   *store.Store
	station *engine.Station
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Build the stage registry (inline or CUE file)
//  2. Open the store and start the first session
//  3. Apply initial assignments
//  4. Execute steps, checking each expect clause
//  5. Verify the persisted ledger matches the in-memory one
//  6. Evaluate assertions
//
// A returned error means the scenario could not be executed; expectation
// failures are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := scenario.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build stage registry: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewStepClock(time.Time{}, 0)
	session := engine.Session{
		ModelName: scenario.Session.Model,
		Patterns:  scenario.Session.Patterns,
		Shift:     scenario.Session.Shift,
		Operator:  scenario.Session.Operator,
	}
	station := engine.NewStation(reg, session,
		engine.WithJournal(st),
		engine.WithTimeSource(clock.Now),
		engine.WithSessionIDs(testutil.NewSequentialSessionGenerator("")),
	)

	h := &Harness{
		store:   st,
		station: station,
	}

	ctx := context.Background()
	if err := st.StartSession(ctx, station.SessionID(), testutil.DefaultBase); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if err := h.assignAll(ctx, scenario.Assignments); err != nil {
		return nil, fmt.Errorf("failed to apply assignments: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result.Records = station.Records()
	result.Progress = station.ProgressSnapshot()
	result.SessionID = station.SessionID()

	if err := h.verifyPersisted(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// assignAll applies assignments in stage order so the journal sees a
// deterministic sequence.
func (h *Harness) assignAll(ctx context.Context, assignments map[int]string) error {
	ids := make([]int, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if err := h.station.Assign(ctx, ir.StageID(id), assignments[id]); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	sr := StepResult{Index: index, Kind: step.Kind()}

	switch sr.Kind {
	case StepAssign:
		if err := h.station.Assign(ctx, ir.StageID(step.Assign.Stage), step.Assign.Employee); err != nil {
			return err
		}

	case StepReset:
		if _, err := h.station.Reset(ctx); err != nil {
			return err
		}

	case StepScan:
		outcome, err := h.station.Submit(ctx, scanEvent(step))
		if err != nil {
			return err
		}
		sr.Outcome = outcome
		sr.Progress = h.station.Progress(step.Code)
		if outcome != nil {
			result.Trace = append(result.Trace, outcome.Record)
		}
		checkExpect(index, step, sr, result)
	}

	sr.SessionID = h.station.SessionID()
	result.Steps = append(result.Steps, sr)
	return nil
}

func scanEvent(step Step) engine.ScanEvent {
	ev := engine.ScanEvent{
		ProductCode: step.Code,
		StageID:     ir.StageID(step.Stage),
		DefectCode:  step.Defect,
		Measurement: step.Measure,
	}
	for slot, v := range step.Aux {
		ev.Aux[slot-1] = v
	}
	return ev
}

// checkExpect compares a scan step's outcome with its expect clause.
func checkExpect(index int, step Step, sr StepResult, result *Result) {
	e := step.Expect
	if e == nil {
		return
	}

	if e.Dropped {
		if sr.Outcome != nil {
			result.AddErrorf("step %d (%s@%d): expected blank scan to be dropped, got %s",
				index, step.Code, step.Stage, sr.Outcome.Kind)
		}
		return
	}
	if sr.Outcome == nil {
		result.AddErrorf("step %d: expected %s, scan was dropped", index, e.Status)
		return
	}

	got := sr.Outcome
	if string(got.Kind) != e.Status {
		result.AddErrorf("step %d (%s@%d): expected status %s, got %s (%s)",
			index, step.Code, step.Stage, e.Status, got.Kind, got.Record.Note)
	}
	if string(got.Reason) != e.Reason {
		result.AddErrorf("step %d (%s@%d): expected reason %q, got %q",
			index, step.Code, step.Stage, e.Reason, got.Reason)
	}
	if e.Note != "" && !strings.Contains(got.Record.Note, e.Note) {
		result.AddErrorf("step %d (%s@%d): expected note containing %q, got %q",
			index, step.Code, step.Stage, e.Note, got.Record.Note)
	}
	if e.Progress != nil {
		if want := e.Progress.UnitProgress(); want != sr.Progress {
			result.AddErrorf("step %d (%s@%d): expected progress %s, got %s",
				index, step.Code, step.Stage, want, sr.Progress)
		}
	}
}

// verifyPersisted reads the ledger back from the store and fails the
// result if it differs from what the Station holds.
func (h *Harness) verifyPersisted(ctx context.Context, result *Result) error {
	persisted, err := h.store.ReadRecords(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("failed to read persisted ledger: %w", err)
	}
	result.Persisted = persisted

	want, err := ir.LedgerDigest(result.Records)
	if err != nil {
		return err
	}
	got, err := ir.LedgerDigest(persisted)
	if err != nil {
		return err
	}
	if want != got {
		result.AddErrorf("persisted ledger differs from in-memory ledger (%d vs %d records)",
			len(persisted), len(result.Records))
	}
	return nil
}
