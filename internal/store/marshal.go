package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

// timeLayout keeps sub-second precision and the zone offset, so a restored
// record formats to the same wall-clock text as the one that was written.
const timeLayout = time.RFC3339Nano

// marshalAux serializes aux values to canonical JSON (array of 8 strings).
// A nil pointer is stored as NULL.
func marshalAux(aux *ir.AuxValues) (sql.NullString, error) {
	if aux == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(aux[:])
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal aux: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalAux is the inverse of marshalAux.
func unmarshalAux(col sql.NullString) (*ir.AuxValues, error) {
	if !col.Valid {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(col.String), &values); err != nil {
		return nil, fmt.Errorf("unmarshal aux: %w", err)
	}
	if len(values) != ir.MaxAuxFields {
		return nil, fmt.Errorf("unmarshal aux: got %d values, want %d", len(values), ir.MaxAuxFields)
	}
	var aux ir.AuxValues
	copy(aux[:], values)
	return &aux, nil
}

func marshalMeasurement(m *string) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *m, Valid: true}
}

func unmarshalMeasurement(col sql.NullString) *string {
	if !col.Valid {
		return nil
	}
	m := col.String
	return &m
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
