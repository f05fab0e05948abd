package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func TestLedger_AppendAssignsSeq(t *testing.T) {
	l := NewLedger()

	assert.Equal(t, int64(1), l.Append(ir.ScanRecord{SessionID: "s", ProductCode: "A", StageID: 1, Status: ir.StatusValid}))
	assert.Equal(t, int64(2), l.Append(ir.ScanRecord{SessionID: "s", ProductCode: "A", StageID: 2, Status: ir.StatusValid}))
	assert.Equal(t, int64(2), l.LastSeq())

	recs := l.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, ir.MustRecordID("s", 1, "A", 1, ir.StatusValid), recs[0].ID)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestLedger_CallerSeqIgnored(t *testing.T) {
	l := NewLedger()
	seq := l.Append(ir.ScanRecord{Seq: 99, ID: "mine"})
	assert.Equal(t, int64(1), seq)
	assert.NotEqual(t, "mine", l.Records()[0].ID)
}

func TestLedger_AppendWithFailedCommit(t *testing.T) {
	l := NewLedger()
	l.Append(ir.ScanRecord{ProductCode: "A"})

	var seen ir.ScanRecord
	_, err := l.AppendWith(ir.ScanRecord{ProductCode: "B"}, func(r ir.ScanRecord) error {
		seen = r
		return errInjected
	})
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, int64(2), seen.Seq, "commit sees the stamped record")
	assert.Equal(t, 1, l.Len(), "nothing appended")

	rec, err := l.AppendWith(ir.ScanRecord{ProductCode: "B"}, func(ir.ScanRecord) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Seq, "seq reused after failed commit")
}

func TestLedger_RecordsIsCopy(t *testing.T) {
	l := NewLedger()
	l.Append(ir.ScanRecord{ProductCode: "A"})

	recs := l.Records()
	recs[0].ProductCode = "changed"

	assert.Equal(t, "A", l.Records()[0].ProductCode)
}

func TestLedger_ResetRestartsAtOne(t *testing.T) {
	l := NewLedger()
	l.Append(ir.ScanRecord{})
	l.Append(ir.ScanRecord{})
	l.reset()

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, int64(1), l.Append(ir.ScanRecord{}))
}

func TestLedger_Load(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.load([]ir.ScanRecord{{Seq: 1}, {Seq: 2}}))
	assert.Equal(t, int64(3), l.Append(ir.ScanRecord{}))

	err := NewLedger().load([]ir.ScanRecord{{Seq: 1}, {Seq: 3}})
	assert.Error(t, err)
}
