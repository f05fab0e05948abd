package engine

import (
	"fmt"

	"github.com/roach88/scanline/internal/ir"
)

// Ledger is the append-only ScanLedger.
//
// Seq numbers are assigned by the ledger from its logical Clock, never by
// the caller. Existing entries are never edited; only reset (reserved for
// the Station) clears them, together with the tracker.
//
// INVARIANTS:
//   - records[i].Seq == i+1
//   - records[i].ID is content-addressed over (session, seq, code, stage, status)
//
// Ledger is not safe for concurrent use; the Station serialises access.
type Ledger struct {
	clock   *Clock
	records []ir.ScanRecord
}

// NewLedger creates an empty ledger whose first record is numbered 1.
func NewLedger() *Ledger {
	return &Ledger{clock: NewClock(0)}
}

// Append stamps rec with the next seq and its ID and appends it.
// Returns the assigned seq.
func (l *Ledger) Append(rec ir.ScanRecord) int64 {
	stamped, _ := l.AppendWith(rec, nil)
	return stamped.Seq
}

// AppendWith stamps rec and calls commit with the stamped record before
// appending it. If commit fails, nothing is appended and the clock is not
// advanced, so the next attempt reuses the same seq. Returns the stamped
// record.
func (l *Ledger) AppendWith(rec ir.ScanRecord, commit func(ir.ScanRecord) error) (ir.ScanRecord, error) {
	rec.Seq = l.clock.Reserve()
	rec.ID = ir.MustRecordID(rec.SessionID, rec.Seq, rec.ProductCode, rec.StageID, rec.Status)

	if commit != nil {
		if err := commit(rec); err != nil {
			return ir.ScanRecord{}, err
		}
	}

	if !l.clock.Commit(rec.Seq) {
		// Two appends raced; callers must serialise.
		panic(fmt.Sprintf("ledger: seq %d was taken during append", rec.Seq))
	}
	l.records = append(l.records, rec)
	return rec, nil
}

// Records returns a copy of all records in seq order.
func (l *Ledger) Records() []ir.ScanRecord {
	out := make([]ir.ScanRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// LastSeq returns the seq of the most recent record, or 0 when empty.
func (l *Ledger) LastSeq() int64 {
	return l.clock.Last()
}

// load replaces the contents with already-stamped records, used when
// restoring a persisted session. Records must be in seq order starting at 1.
func (l *Ledger) load(records []ir.ScanRecord) error {
	for i, rec := range records {
		if rec.Seq != int64(i+1) {
			return fmt.Errorf("ledger: record %d has seq %d, want %d", i, rec.Seq, i+1)
		}
	}
	l.records = append([]ir.ScanRecord(nil), records...)
	l.clock = NewClock(int64(len(records)))
	return nil
}

// reset empties the ledger and rewinds numbering to 1.
func (l *Ledger) reset() {
	l.records = nil
	l.clock.Rewind()
}
