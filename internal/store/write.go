package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

// AppendRecord inserts a ledger record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same record
// twice is silently ignored. A different record with an existing
// (session_id, seq) still fails on the UNIQUE constraint.
//
// The session referenced by rec.SessionID must exist (foreign key constraint).
func (s *Store) AppendRecord(ctx context.Context, rec ir.ScanRecord) error {
	aux, err := marshalAux(rec.Aux)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_records
		(id, session_id, seq, product_code, validation_pattern, model_name, employee_id,
		 stage_id, timestamp, status, reason, note, measurement, aux, defect_code, shift)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SessionID,
		rec.Seq,
		rec.ProductCode,
		rec.ValidationPattern,
		rec.ModelName,
		rec.EmployeeID,
		int(rec.StageID),
		formatTime(rec.Timestamp),
		string(rec.Status),
		string(rec.Reason),
		rec.Note,
		marshalMeasurement(rec.Measurement),
		aux,
		rec.DefectCode,
		rec.Shift,
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// SetAssignment records the employee for a stage. A blank employee
// removes the assignment.
func (s *Store) SetAssignment(ctx context.Context, stageID ir.StageID, employee string) error {
	var err error
	if employee == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM stage_assignments WHERE stage_id = ?`, int(stageID))
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO stage_assignments (stage_id, employee_id) VALUES (?, ?)
			ON CONFLICT(stage_id) DO UPDATE SET employee_id = excluded.employee_id
		`, int(stageID), employee)
	}
	if err != nil {
		return fmt.Errorf("set assignment: %w", err)
	}
	return nil
}

// StartSession opens a new session. Fails if a session is already open.
func (s *Store) StartSession(ctx context.Context, sessionID string, startedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var open int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE ended_at IS NULL`).Scan(&open); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("start session: a session is already open")
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, station, started_at) VALUES (?, ?, ?)`,
		sessionID, s.station, formatTime(startedAt)); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("start session: commit: %w", err)
	}
	return nil
}

// Reset ends the open session and starts sessionID in one transaction:
// every scan record is deleted, the open session is closed at startedAt and
// the new session row is inserted. Assignments are kept. Either all of this
// happens or none of it does.
func (s *Store) Reset(ctx context.Context, sessionID string, startedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM scan_records`); err != nil {
		return fmt.Errorf("reset: delete records: %w", err)
	}

	at := formatTime(startedAt)
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE ended_at IS NULL`, at); err != nil {
		return fmt.Errorf("reset: close session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, station, started_at) VALUES (?, ?, ?)`,
		sessionID, s.station, at); err != nil {
		return fmt.Errorf("reset: open session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}
	return nil
}
