package engine

import (
	"context"
	"fmt"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// Replay and determinism
//
// A ledger record carries every input that produced it: the code, stage,
// defect code, measurement and aux values, the employee assigned at the
// time, the model and pattern list in force, the shift, and the timestamp.
// Replay turns each record back into a ScanEvent, restores the session
// and assignment it saw, and resubmits it to a fresh Station under the
// same session id.
//
// Evaluate is pure and record IDs are content-addressed, so a faithful
// ledger replays to a byte-identical ledger. A mismatch means either the
// ledger was edited or the rules changed since it was written (for example
// a stage's standard was reloaded mid-session).

// ReplayResult compares an original ledger with its replay.
type ReplayResult struct {
	Original     string // ledger digest of the input
	Replayed     string // ledger digest after replay
	Records      []ir.ScanRecord
	Progress     map[string]ir.UnitProgress
	FirstDiverge int64 // seq of the first differing record, 0 if identical
}

// Identical reports whether replay reproduced the ledger exactly.
func (r ReplayResult) Identical() bool {
	return r.Original == r.Replayed
}

// EventFromRecord reconstructs the event that produced rec.
func EventFromRecord(rec ir.ScanRecord) ScanEvent {
	ev := ScanEvent{
		ProductCode: rec.ProductCode,
		StageID:     rec.StageID,
		DefectCode:  rec.DefectCode,
		Timestamp:   rec.Timestamp,
	}
	if rec.Measurement != nil {
		ev.Measurement = *rec.Measurement
	}
	if rec.Aux != nil {
		ev.Aux = *rec.Aux
	}
	return ev
}

// Replay resubmits records to a fresh in-memory Station and compares the
// resulting ledger against the input.
func Replay(ctx context.Context, records []ir.ScanRecord, reg *stage.Registry) (ReplayResult, error) {
	var result ReplayResult

	original, err := ir.LedgerDigest(records)
	if err != nil {
		return result, fmt.Errorf("replay: %w", err)
	}
	result.Original = original

	sessionID := "replay"
	if len(records) > 0 {
		sessionID = records[0].SessionID
	}
	st := NewStation(reg, Session{}, WithSessionID(sessionID))

	for _, rec := range records {
		st.SetSession(Session{
			ModelName: rec.ModelName,
			Patterns:  rec.ValidationPattern,
			Shift:     rec.Shift,
		})
		st.mu.Lock()
		if rec.EmployeeID == "" {
			delete(st.assignments, rec.StageID)
		} else {
			st.assignments[rec.StageID] = rec.EmployeeID
		}
		st.mu.Unlock()

		if _, err := st.Submit(ctx, EventFromRecord(rec)); err != nil {
			return result, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
	}

	result.Records = st.Records()
	result.Progress = st.ProgressSnapshot()
	result.Replayed, err = ir.LedgerDigest(result.Records)
	if err != nil {
		return result, fmt.Errorf("replay: %w", err)
	}

	if !result.Identical() {
		result.FirstDiverge = firstDivergence(records, result.Records)
	}
	return result, nil
}

func firstDivergence(a, b []ir.ScanRecord) int64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, errA := ir.MarshalCanonical(ir.CanonicalRecord(a[i]))
		cb, errB := ir.MarshalCanonical(ir.CanonicalRecord(b[i]))
		if errA != nil || errB != nil || string(ca) != string(cb) {
			return int64(i + 1)
		}
	}
	return int64(n + 1)
}
