package engine

import (
	"fmt"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// PersistedState is what a journal hands back on startup.
type PersistedState struct {
	SessionID   string
	Records     []ir.ScanRecord // in seq order
	Assignments map[ir.StageID]string
}

// Restore rebuilds a Station from persisted state.
//
// Progress is not stored; it is derived by running every record through
// Tracker.Apply in seq order. Each record's ID is recomputed and must match,
// so a tampered or reordered ledger is refused.
func Restore(state PersistedState, reg *stage.Registry, session Session, opts ...StationOption) (*Station, error) {
	if state.SessionID == "" {
		return nil, fmt.Errorf("restore: session id is required")
	}

	for i, rec := range state.Records {
		if rec.SessionID != state.SessionID {
			return nil, fmt.Errorf("restore: record seq %d belongs to session %q, want %q",
				rec.Seq, rec.SessionID, state.SessionID)
		}
		want, err := ir.RecordID(rec.SessionID, rec.Seq, rec.ProductCode, rec.StageID, rec.Status)
		if err != nil {
			return nil, fmt.Errorf("restore: record %d: %w", i, err)
		}
		if rec.ID != want {
			return nil, fmt.Errorf("restore: record seq %d has id %s, want %s", rec.Seq, rec.ID, want)
		}
	}

	opts = append(opts,
		WithSessionID(state.SessionID),
		WithAssignments(state.Assignments),
	)
	s := NewStation(reg, session, opts...)

	if err := s.ledger.load(state.Records); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	for _, rec := range state.Records {
		s.tracker.Apply(rec.ProductCode, rec.StageID, rec.Status)
	}

	return s, nil
}
