package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

// ErrNoSession is returned by CurrentSession when no session is open.
var ErrNoSession = errors.New("no open session")

// SessionInfo describes one session row.
type SessionInfo struct {
	ID        string
	Station   string
	StartedAt time.Time
	EndedAt   *time.Time
}

// CurrentSession returns the open session, or ErrNoSession.
func (s *Store) CurrentSession(ctx context.Context) (SessionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, station, started_at, ended_at
		FROM sessions
		WHERE ended_at IS NULL
		ORDER BY rowid DESC
		LIMIT 1
	`)
	info, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, ErrNoSession
	}
	return info, err
}

// ReadSessions returns every session, oldest first.
func (s *Store) ReadSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station, started_at, ended_at
		FROM sessions
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		info, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadRecords returns the ledger of a session with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no records.
func (s *Store) ReadRecords(ctx context.Context, sessionID string) ([]ir.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, product_code, validation_pattern, model_name, employee_id,
		       stage_id, timestamp, status, reason, note, measurement, aux, defect_code, shift
		FROM scan_records
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []ir.ScanRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// ReadAssignments returns the employee assigned to each stage.
func (s *Store) ReadAssignments(ctx context.Context) (map[ir.StageID]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage_id, employee_id
		FROM stage_assignments
		ORDER BY stage_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	out := make(map[ir.StageID]string)
	for rows.Next() {
		var id int
		var employee string
		if err := rows.Scan(&id, &employee); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out[ir.StageID(id)] = employee
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionRow(row rowScanner) (SessionInfo, error) {
	var (
		info    SessionInfo
		started string
		ended   sql.NullString
	)
	if err := row.Scan(&info.ID, &info.Station, &started, &ended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return info, err
		}
		return info, fmt.Errorf("scan session: %w", err)
	}

	var err error
	if info.StartedAt, err = parseTime(started); err != nil {
		return info, fmt.Errorf("scan session: %w", err)
	}
	if ended.Valid {
		t, err := parseTime(ended.String)
		if err != nil {
			return info, fmt.Errorf("scan session: %w", err)
		}
		info.EndedAt = &t
	}
	return info, nil
}

func scanRecord(row rowScanner) (ir.ScanRecord, error) {
	var (
		rec         ir.ScanRecord
		stageID     int
		ts          string
		status      string
		reason      string
		measurement sql.NullString
		aux         sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Seq,
		&rec.ProductCode,
		&rec.ValidationPattern,
		&rec.ModelName,
		&rec.EmployeeID,
		&stageID,
		&ts,
		&status,
		&reason,
		&rec.Note,
		&measurement,
		&aux,
		&rec.DefectCode,
		&rec.Shift,
	)
	if err != nil {
		return rec, fmt.Errorf("scan record: %w", err)
	}

	rec.StageID = ir.StageID(stageID)
	rec.Status = ir.Status(status)
	rec.Reason = ir.FailureReason(reason)
	rec.Measurement = unmarshalMeasurement(measurement)

	if rec.Timestamp, err = parseTime(ts); err != nil {
		return rec, fmt.Errorf("scan record seq %d: %w", rec.Seq, err)
	}
	if rec.Aux, err = unmarshalAux(aux); err != nil {
		return rec, fmt.Errorf("scan record seq %d: %w", rec.Seq, err)
	}
	return rec, nil
}
