package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIDDeterminism(t *testing.T) {
	id1, err := RecordID("session-1", 1, "ABC123", 1, StatusValid)
	require.NoError(t, err)

	id2, err := RecordID("session-1", 1, "ABC123", 1, StatusValid)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "RecordID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestRecordIDChangesWithInput(t *testing.T) {
	base := MustRecordID("session-1", 1, "ABC123", 1, StatusValid)

	assert.NotEqual(t, base, MustRecordID("session-2", 1, "ABC123", 1, StatusValid))
	assert.NotEqual(t, base, MustRecordID("session-1", 2, "ABC123", 1, StatusValid))
	assert.NotEqual(t, base, MustRecordID("session-1", 1, "ABC124", 1, StatusValid))
	assert.NotEqual(t, base, MustRecordID("session-1", 1, "ABC123", 2, StatusValid))
	assert.NotEqual(t, base, MustRecordID("session-1", 1, "ABC123", 1, StatusError))
}

func TestCanonicalRecordOmitsOptionalFields(t *testing.T) {
	rec := ScanRecord{
		Seq:         1,
		ID:          "id-1",
		SessionID:   "s",
		ProductCode: "ABC",
		StageID:     1,
		Timestamp:   time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Status:      StatusValid,
	}

	m := CanonicalRecord(rec)
	assert.Equal(t, "2024-03-01 08:30:00", m["timestamp"])
	assert.NotContains(t, m, "measurement")
	assert.NotContains(t, m, "aux")
	assert.NotContains(t, m, "reason")
	assert.NotContains(t, m, "defect_code")

	measurement := "9.5"
	aux := AuxValues{"B1"}
	rec.Measurement = &measurement
	rec.Aux = &aux
	rec.Reason = ReasonAlreadyPassed

	m = CanonicalRecord(rec)
	assert.Equal(t, "9.5", m["measurement"])
	assert.Equal(t, []string{"B1", "", "", "", "", "", "", ""}, m["aux"])
	assert.Equal(t, "ALREADY_PASSED", m["reason"])
}

func TestLedgerDigest(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	records := []ScanRecord{
		{Seq: 1, ID: "a", ProductCode: "ABC", StageID: 1, Status: StatusValid, Timestamp: ts},
		{Seq: 2, ID: "b", ProductCode: "ABC", StageID: 1, Status: StatusError, Reason: ReasonAlreadyPassed, Timestamp: ts},
	}

	d1, err := LedgerDigest(records)
	require.NoError(t, err)
	d2, err := LedgerDigest(records)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	reordered := []ScanRecord{records[1], records[0]}
	d3, err := LedgerDigest(reordered)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3, "order is part of the ledger identity")

	empty, err := LedgerDigest(nil)
	require.NoError(t, err)
	assert.Len(t, empty, 64)
}
