package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func TestRestore_RebuildsProgress(t *testing.T) {
	st := newTestStation(t, lineRegistry())
	submit(t, st, ScanEvent{ProductCode: "ABC1", StageID: 1})
	submit(t, st, ScanEvent{ProductCode: "ABC1", StageID: 2, DefectCode: "NG01"})
	submit(t, st, ScanEvent{ProductCode: "ABC2", StageID: 1})
	submit(t, st, ScanEvent{ProductCode: "XYZ", StageID: 1})

	restored, err := Restore(PersistedState{
		SessionID:   st.SessionID(),
		Records:     st.Records(),
		Assignments: st.Assignments(),
	}, lineRegistry(), testSession())
	require.NoError(t, err)

	assert.Equal(t, st.SessionID(), restored.SessionID())
	assert.Equal(t, st.ProgressSnapshot(), restored.ProgressSnapshot())
	assert.Equal(t, st.Records(), restored.Records())
	assert.Equal(t, st.Assignments(), restored.Assignments())

	out := submit(t, restored, ScanEvent{ProductCode: "ABC2", StageID: 2, Measurement: "5"})
	assert.Equal(t, int64(5), out.Record.Seq, "numbering continues")
	assert.Equal(t, ir.StatusValid, out.Kind)

	out = submit(t, restored, ScanEvent{ProductCode: "ABC1", StageID: 3, Measurement: "PASS", Aux: ir.AuxValues{"Kim"}})
	assert.Equal(t, ir.ReasonUnresolvedDefect, out.Reason, "defect survives restart")
}

func TestRestore_Empty(t *testing.T) {
	restored, err := Restore(PersistedState{SessionID: "s-1"}, plainRegistry(1), testSession())
	require.NoError(t, err)
	assert.Empty(t, restored.Records())
	assert.Equal(t, "s-1", restored.SessionID())
}

func TestRestore_RejectsTamperedLedger(t *testing.T) {
	st := newTestStation(t, plainRegistry(2))
	submit(t, st, ScanEvent{ProductCode: "ABC1", StageID: 1})
	submit(t, st, ScanEvent{ProductCode: "ABC1", StageID: 2})

	recs := st.Records()
	recs[1].Status = ir.StatusDefect

	_, err := Restore(PersistedState{SessionID: st.SessionID(), Records: recs}, plainRegistry(2), testSession())
	assert.ErrorContains(t, err, "has id")
}

func TestRestore_RejectsForeignSession(t *testing.T) {
	st := newTestStation(t, plainRegistry(1))
	submit(t, st, ScanEvent{ProductCode: "ABC1", StageID: 1})

	_, err := Restore(PersistedState{SessionID: "other", Records: st.Records()}, plainRegistry(1), testSession())
	assert.ErrorContains(t, err, "belongs to session")

	_, err = Restore(PersistedState{}, plainRegistry(1), testSession())
	assert.Error(t, err)
}

func TestRestore_KeepsJournal(t *testing.T) {
	j := newMemJournal()
	restored, err := Restore(PersistedState{SessionID: "s-1"}, plainRegistry(1), testSession(), WithJournal(j))
	require.NoError(t, err)

	require.NoError(t, restored.Assign(context.Background(), 1, "EMP-01"))
	submit(t, restored, ScanEvent{ProductCode: "ABC1", StageID: 1})
	assert.Len(t, j.records, 1)
}
