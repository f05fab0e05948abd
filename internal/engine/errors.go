package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/scanline/internal/ir"
)

// StationError represents an infrastructure failure in the Station.
//
// Validation failures are never StationErrors: they are ledger records with
// status error. A StationError means the event could not be processed at all
// and nothing was committed.
type StationError struct {
	// Code identifies the error category.
	Code StationErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// StationErrorCode categorizes station errors.
type StationErrorCode string

const (
	// ErrCodeUnknownStage indicates the event names a stage the registry lacks.
	ErrCodeUnknownStage StationErrorCode = "UNKNOWN_STAGE"

	// ErrCodePersist indicates the journal rejected a write.
	ErrCodePersist StationErrorCode = "PERSIST_FAILED"

	// ErrCodeNoRegistry indicates the station has no stage registry loaded.
	ErrCodeNoRegistry StationErrorCode = "NO_REGISTRY"
)

// Error implements the error interface.
func (e *StationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StationError) Unwrap() error {
	return e.Err
}

// IsUnknownStage returns true if err is an unknown stage error.
// Uses errors.As to handle wrapped errors.
func IsUnknownStage(err error) bool {
	var se *StationError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnknownStage
	}
	return false
}

// IsPersistError returns true if err is a journal write failure.
func IsPersistError(err error) bool {
	var se *StationError
	if errors.As(err, &se) {
		return se.Code == ErrCodePersist
	}
	return false
}

// NewUnknownStageError creates a StationError for a stage id outside the registry.
func NewUnknownStageError(id ir.StageID, n int) *StationError {
	return &StationError{
		Code:    ErrCodeUnknownStage,
		Message: fmt.Sprintf("stage %d is not defined (registry has %d stages)", id, n),
		Details: map[string]string{
			"stage_id": fmt.Sprintf("%d", id),
			"stages":   fmt.Sprintf("%d", n),
		},
	}
}

// NewPersistError wraps a journal failure.
func NewPersistError(op string, err error) *StationError {
	return &StationError{
		Code:    ErrCodePersist,
		Message: op,
		Err:     err,
	}
}
