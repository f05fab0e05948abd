package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

// State is everything needed to resume a station after a restart.
type State struct {
	Session     SessionInfo
	Records     []ir.ScanRecord
	Assignments map[ir.StageID]string
	Started     bool // true if LoadState had to open a new session
}

// LoadState returns the open session with its ledger and the current
// assignments. If no session is open, one is started with newID at now.
func (s *Store) LoadState(ctx context.Context, newID func() string, now time.Time) (State, error) {
	var state State

	info, err := s.CurrentSession(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		id := newID()
		if err := s.StartSession(ctx, id, now); err != nil {
			return state, fmt.Errorf("load state: %w", err)
		}
		info = SessionInfo{ID: id, Station: s.station, StartedAt: now}
		state.Started = true
	case err != nil:
		return state, fmt.Errorf("load state: %w", err)
	}
	state.Session = info

	if state.Records, err = s.ReadRecords(ctx, info.ID); err != nil {
		return state, fmt.Errorf("load state: %w", err)
	}
	if state.Assignments, err = s.ReadAssignments(ctx); err != nil {
		return state, fmt.Errorf("load state: %w", err)
	}
	return state, nil
}

// LastSeq returns the highest seq in the open session's ledger (0 if empty).
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM scan_records WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
