package engine

import (
	"strings"
	"time"

	"github.com/roach88/scanline/internal/ir"
)

// ScanEvent is one scan delivered by the input collaborator: the scanned
// code plus whatever the operator typed for the active stage.
type ScanEvent struct {
	ProductCode string
	StageID     ir.StageID
	DefectCode  string
	Measurement string
	Aux         ir.AuxValues

	// Timestamp is when the scan was captured. Zero means "stamp on commit"
	// with the Station's time source.
	Timestamp time.Time
}

// Normalize trims every text input. Trimming is part of identifying the
// unit, so it happens before the blank-code guard and before evaluation.
func (e ScanEvent) Normalize() ScanEvent {
	e.ProductCode = strings.TrimSpace(e.ProductCode)
	e.DefectCode = strings.TrimSpace(e.DefectCode)
	e.Measurement = strings.TrimSpace(e.Measurement)
	for i := range e.Aux {
		e.Aux[i] = strings.TrimSpace(e.Aux[i])
	}
	return e
}

// IsBlank reports whether the event carries no product code. Blank scans
// are dropped before the engine is invoked.
func (e ScanEvent) IsBlank() bool {
	return strings.TrimSpace(e.ProductCode) == ""
}

// ApplyDefaults fills blank auxiliary values from the stage's configured
// defaults. Only active fields with a default are touched.
func (e ScanEvent) ApplyDefaults(def ir.StageDefinition) ScanEvent {
	for i, field := range def.Aux {
		if field.Active() && field.HasDefault && e.Aux[i] == "" {
			e.Aux[i] = field.Default
		}
	}
	return e
}
