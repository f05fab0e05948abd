package ir

import (
	"fmt"
	"time"
)

// MaxAuxFields is the fixed number of auxiliary field slots per stage.
const MaxAuxFields = 8

// StageID is the dense 1-based ordinal of a process stage.
type StageID int

// Status is the disposition of a processed scan event.
type Status string

const (
	// StatusValid means the unit passed the stage.
	StatusValid Status = "valid"

	// StatusDefect means the operator declared a defect for the unit.
	StatusDefect Status = "defect"

	// StatusError means the event was rejected. Progress is untouched.
	StatusError Status = "error"
)

// IsValid reports whether s is one of the three known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusValid, StatusDefect, StatusError:
		return true
	}
	return false
}

// FailureReason identifies why an event was rejected.
type FailureReason string

// Failure reasons, in the order the validation rules evaluate them.
const (
	ReasonMissingModelName         FailureReason = "MISSING_MODEL_NAME"
	ReasonMissingValidationList    FailureReason = "MISSING_VALIDATION_LIST"
	ReasonMissingEmployee          FailureReason = "MISSING_EMPLOYEE"
	ReasonPatternMismatch          FailureReason = "PATTERN_MISMATCH"
	ReasonMeasurementMissing       FailureReason = "MEASUREMENT_MISSING"
	ReasonMeasurementOutOfRange    FailureReason = "MEASUREMENT_OUT_OF_RANGE"
	ReasonMeasurementNonConforming FailureReason = "MEASUREMENT_NON_CONFORMING"
	ReasonAuxiliaryFieldMissing    FailureReason = "AUXILIARY_FIELD_MISSING"
	ReasonUnresolvedDefect         FailureReason = "UNRESOLVED_DEFECT"
	ReasonAlreadyPassed            FailureReason = "ALREADY_PASSED"
	ReasonOutOfSequence            FailureReason = "OUT_OF_SEQUENCE"
)

// AllFailureReasons lists every failure reason in rule order.
var AllFailureReasons = []FailureReason{
	ReasonMissingModelName,
	ReasonMissingValidationList,
	ReasonMissingEmployee,
	ReasonPatternMismatch,
	ReasonMeasurementMissing,
	ReasonMeasurementOutOfRange,
	ReasonMeasurementNonConforming,
	ReasonAuxiliaryFieldMissing,
	ReasonUnresolvedDefect,
	ReasonAlreadyPassed,
	ReasonOutOfSequence,
}

// AuxField is one optional named auxiliary input of a stage.
// The field is active iff Label is non-empty.
type AuxField struct {
	Label      string `json:"label" yaml:"label"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	HasDefault bool   `json:"has_default,omitempty" yaml:"-"`
}

// Active reports whether the field takes part in validation.
func (f AuxField) Active() bool {
	return f.Label != ""
}

// AuxFields is the fixed-shape auxiliary field layout of a stage.
type AuxFields [MaxAuxFields]AuxField

// ActiveCount returns the number of fields with a label.
func (a AuxFields) ActiveCount() int {
	n := 0
	for _, f := range a {
		if f.Active() {
			n++
		}
	}
	return n
}

// AuxValues holds the values typed for the auxiliary fields of one event.
// An empty string means no value was supplied for that slot.
type AuxValues [MaxAuxFields]string

// IsZero reports whether no slot carries a value.
func (v AuxValues) IsZero() bool {
	return v == AuxValues{}
}

// StageDefinition describes one process stage.
//
// INVARIANTS (enforced by stage.NewRegistry):
//   - ID is in 1..N and dense across the registry
//   - Name is non-empty
//   - Standard is StandardNone unless MeasurementRequired
type StageDefinition struct {
	ID                  StageID   `json:"id" yaml:"id"`
	Name                string    `json:"name" yaml:"name"`
	MeasurementRequired bool      `json:"measurement_required" yaml:"measurement_required"`
	MeasurementLabel    string    `json:"measurement_label,omitempty" yaml:"measurement_label,omitempty"`
	Standard            Standard  `json:"standard" yaml:"standard"`
	Aux                 AuxFields `json:"aux" yaml:"aux"`
}

// ScanRecord is one immutable ledger entry.
//
// Seq and ID are assigned by the ledger, never by the caller.
// Measurement and Aux are nil when the event carried no such input.
type ScanRecord struct {
	Seq               int64         `json:"seq"`
	ID                string        `json:"id"`
	SessionID         string        `json:"session_id"`
	ProductCode       string        `json:"product_code"`
	ValidationPattern string        `json:"validation_pattern"`
	ModelName         string        `json:"model_name"`
	EmployeeID        string        `json:"employee_id"`
	StageID           StageID       `json:"stage_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Status            Status        `json:"status"`
	Reason            FailureReason `json:"reason,omitempty"`
	Note              string        `json:"note"`
	Measurement       *string       `json:"measurement,omitempty"`
	Aux               *AuxValues    `json:"aux,omitempty"`
	DefectCode        string        `json:"defect_code,omitempty"`
	Shift             string        `json:"shift,omitempty"`
}

// UnitProgress is the per-unit state kept by the tracker.
// The zero value is the state of a unit that was never seen.
type UnitProgress struct {
	HighestStagePassed int  `json:"highest_stage_passed" yaml:"highest_stage_passed"`
	DefectPending      bool `json:"defect_pending" yaml:"defect_pending"`
}

// String renders progress as {highest,pending}.
func (p UnitProgress) String() string {
	return fmt.Sprintf("{%d,%t}", p.HighestStagePassed, p.DefectPending)
}

// Outcome is what the engine hands to presentation and export layers.
type Outcome struct {
	Kind   Status        `json:"kind"`
	Reason FailureReason `json:"reason,omitempty"`
	Record ScanRecord    `json:"record"`
}

// Message returns the operator feedback line for the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case StatusValid:
		return "OK: " + o.Record.ProductCode
	case StatusDefect:
		return fmt.Sprintf("DEFECT %s: %s", o.Record.DefectCode, o.Record.ProductCode)
	default:
		return o.Record.Note
	}
}
