// Package export writes the scan ledger as a CSV report.
//
// One row per record, in ledger order. The stage name is resolved from the
// registry and all eight auxiliary slots get a column, so every field an
// operator entered survives the round trip to a spreadsheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// Header is the fixed column layout.
var Header = []string{
	"No.",
	"Scanned Code",
	"Model Name",
	"Stage",
	"Measurement",
	"Aux 1", "Aux 2", "Aux 3", "Aux 4", "Aux 5", "Aux 6", "Aux 7", "Aux 8",
	"Employee",
	"Status",
	"Reason",
	"Note",
	"Defect Code",
	"Shift",
	"Scan Date & Time",
}

// Write encodes records as CSV to w. Records are written in the order given.
func Write(w io.Writer, records []ir.ScanRecord, reg *stage.Registry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec, reg)); err != nil {
			return fmt.Errorf("export: write seq %d: %w", rec.Seq, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// Row renders one record as CSV cells matching Header.
func Row(rec ir.ScanRecord, reg *stage.Registry) []string {
	row := make([]string, 0, len(Header))

	row = append(row,
		strconv.FormatInt(rec.Seq, 10),
		rec.ProductCode,
		rec.ModelName,
		stageLabel(rec.StageID, reg),
		deref(rec.Measurement),
	)

	var aux ir.AuxValues
	if rec.Aux != nil {
		aux = *rec.Aux
	}
	row = append(row, aux[:]...)

	row = append(row,
		rec.EmployeeID,
		string(rec.Status),
		string(rec.Reason),
		rec.Note,
		rec.DefectCode,
		rec.Shift,
		ir.FormatTimestamp(rec.Timestamp),
	)
	return row
}

// stageLabel resolves the stage name. Stages removed from the registry
// since the scan still get a readable label.
func stageLabel(id ir.StageID, reg *stage.Registry) string {
	if name := reg.Name(id); name != "" {
		return name
	}
	return fmt.Sprintf("Stage %d", id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FileName returns the report name for an export made at now:
// scan_report_<YYYY-MM-DD>_<unix millis>.csv, with the date taken in UTC.
func FileName(now time.Time) string {
	return fmt.Sprintf("scan_report_%s_%d.csv", now.UTC().Format("2006-01-02"), now.UnixMilli())
}

// WriteFile writes the report into dir under FileName(now) and returns the
// path. An empty ledger is still exported, header only.
func WriteFile(dir string, records []ir.ScanRecord, reg *stage.Registry, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(now))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	if err := Write(f, records, reg); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close: %w", err)
	}
	return path, nil
}
