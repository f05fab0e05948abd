package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

var testStart = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// startTestSession opens a session or fails the test.
func startTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.StartSession(context.Background(), id, testStart); err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
}

// createTestRecord creates a record with minimal required fields and a
// proper content-addressed ID.
func createTestRecord(sessionID string, seq int64, code string, stageID ir.StageID, status ir.Status) ir.ScanRecord {
	return ir.ScanRecord{
		Seq:               seq,
		ID:                ir.MustRecordID(sessionID, seq, code, stageID, status),
		SessionID:         sessionID,
		ProductCode:       code,
		ValidationPattern: "ABC",
		ModelName:         "X100",
		EmployeeID:        "EMP-01",
		StageID:           stageID,
		Timestamp:         testStart.Add(time.Duration(seq) * time.Second),
		Status:            status,
		Note:              "passed",
	}
}
