package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "scanline/record/v" + RecordVersion
	DomainLedger = "scanline/ledger/v" + RecordVersion
)

// TimestampLayout is the wall-clock layout used in canonical records and
// exports. Seconds resolution matches what operators see on the line.
const TimestampLayout = "2006-01-02 15:04:05"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID of a ledger entry.
//
// The ID covers what happened (session, seq, unit, stage, status), so the
// same ordered event stream always yields the same IDs on replay.
func RecordID(sessionID string, seq int64, productCode string, stageID StageID, status Status) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"session_id":   sessionID,
		"seq":          seq,
		"product_code": productCode,
		"stage_id":     int(stageID),
		"status":       string(status),
	})
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustRecordID is RecordID that panics on error. The inputs are all
// scalar, so marshalling cannot fail in practice.
func MustRecordID(sessionID string, seq int64, productCode string, stageID StageID, status Status) string {
	id, err := RecordID(sessionID, seq, productCode, stageID, status)
	if err != nil {
		panic(err)
	}
	return id
}

// CanonicalRecord converts a record to the map form used for snapshots.
// Optional fields are omitted rather than encoded as null.
func CanonicalRecord(rec ScanRecord) map[string]any {
	m := map[string]any{
		"seq":                rec.Seq,
		"id":                 rec.ID,
		"session_id":         rec.SessionID,
		"product_code":       rec.ProductCode,
		"validation_pattern": rec.ValidationPattern,
		"model_name":         rec.ModelName,
		"employee_id":        rec.EmployeeID,
		"stage_id":           int(rec.StageID),
		"timestamp":          FormatTimestamp(rec.Timestamp),
		"status":             string(rec.Status),
		"note":               rec.Note,
	}
	if rec.Reason != "" {
		m["reason"] = string(rec.Reason)
	}
	if rec.Measurement != nil {
		m["measurement"] = *rec.Measurement
	}
	if rec.Aux != nil {
		m["aux"] = rec.Aux[:]
	}
	if rec.DefectCode != "" {
		m["defect_code"] = rec.DefectCode
	}
	if rec.Shift != "" {
		m["shift"] = rec.Shift
	}
	return m
}

// LedgerDigest hashes an ordered slice of records. Two ledgers with the
// same digest are byte-identical in canonical form.
func LedgerDigest(records []ScanRecord) (string, error) {
	list := make([]any, len(records))
	for i, rec := range records {
		list[i] = CanonicalRecord(rec)
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("LedgerDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLedger, canonical), nil
}

// FormatTimestamp renders t with TimestampLayout. The zero time renders as "".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
