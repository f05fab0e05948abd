package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
	"github.com/roach88/scanline/internal/testutil"
)

// lineRegistry is a four-stage line used across the package tests:
//
//	1 Assembly    no measurement
//	2 Voltage     numeric standard 10
//	3 Visual QC   exact standard PASS, aux Inspector + Color (default Black)
//	4 Packing     no measurement
func lineRegistry() *stage.Registry {
	var qcAux ir.AuxFields
	qcAux[0] = ir.AuxField{Label: "Inspector"}
	qcAux[1] = ir.AuxField{Label: "Color", Default: "Black", HasDefault: true}

	return stage.MustRegistry(
		ir.StageDefinition{ID: 1, Name: "Assembly"},
		ir.StageDefinition{ID: 2, Name: "Voltage", MeasurementRequired: true, MeasurementLabel: "Voltage", Standard: ir.ParseStandard("10")},
		ir.StageDefinition{ID: 3, Name: "Visual QC", MeasurementRequired: true, MeasurementLabel: "Result", Standard: ir.ParseStandard("PASS"), Aux: qcAux},
		ir.StageDefinition{ID: 4, Name: "Packing"},
	)
}

// plainRegistry has n stages with no measurement or aux requirements.
func plainRegistry(n int) *stage.Registry {
	defs := make([]ir.StageDefinition, n)
	for i := range defs {
		defs[i] = ir.StageDefinition{ID: ir.StageID(i + 1), Name: "Stage"}
	}
	return stage.MustRegistry(defs...)
}

func testSession() Session {
	return Session{ModelName: "X100", Patterns: "ABC DEF", Shift: "DAY"}
}

// newTestStation builds a station with every stage assigned and a
// deterministic time source and session id.
func newTestStation(t *testing.T, reg *stage.Registry, opts ...StationOption) *Station {
	t.Helper()
	base := []StationOption{
		WithTimeSource(testutil.NewStepClock(time.Time{}, 0).Now),
		WithSessionIDs(testutil.NewSequentialSessionGenerator("")),
	}
	st := NewStation(reg, testSession(), append(base, opts...)...)
	for i := 1; i <= reg.Len(); i++ {
		require.NoError(t, st.Assign(context.Background(), ir.StageID(i), "EMP-01"))
	}
	return st
}

func submit(t *testing.T, st *Station, ev ScanEvent) ir.Outcome {
	t.Helper()
	out, err := st.Submit(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, out)
	return *out
}

// memJournal is an in-memory Journal with failure injection.
type memJournal struct {
	records     []ir.ScanRecord
	assignments map[ir.StageID]string
	sessions    []string
	failAppend  bool
	failReset   bool
}

var errInjected = errors.New("injected failure")

func newMemJournal() *memJournal {
	return &memJournal{assignments: make(map[ir.StageID]string)}
}

func (j *memJournal) AppendRecord(_ context.Context, rec ir.ScanRecord) error {
	if j.failAppend {
		return errInjected
	}
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) SetAssignment(_ context.Context, id ir.StageID, employee string) error {
	if employee == "" {
		delete(j.assignments, id)
	} else {
		j.assignments[id] = employee
	}
	return nil
}

func (j *memJournal) Reset(_ context.Context, sessionID string, _ time.Time) error {
	if j.failReset {
		return errInjected
	}
	j.records = nil
	j.sessions = append(j.sessions, sessionID)
	return nil
}
