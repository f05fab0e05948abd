package engine

import (
	"fmt"

	"github.com/roach88/scanline/internal/ir"
)

// checkMeasurement applies a stage's measurement requirement.
// Returns nil when the value conforms.
func checkMeasurement(def ir.StageDefinition, value string) *Decision {
	if !def.MeasurementRequired {
		return nil
	}

	label := def.MeasurementLabel
	if label == "" {
		label = "measurement"
	}

	if value == "" {
		return reject(ir.ReasonMeasurementMissing, "%s is required", label)
	}

	switch def.Standard.Kind {
	case ir.StandardNumeric:
		// Numeric standards are exclusive upper bounds.
		got, ok := ir.ParseMeasurement(value)
		if !ok {
			return reject(ir.ReasonMeasurementOutOfRange,
				"%s %q is not a number (must be below %s)", label, value, def.Standard)
		}
		if !got.LessThan(def.Standard.Bound) {
			return reject(ir.ReasonMeasurementOutOfRange,
				"%s %s is not below %s", label, value, def.Standard)
		}

	case ir.StandardExact:
		if !ir.EqualFoldNFC(value, def.Standard.Text) {
			return reject(ir.ReasonMeasurementNonConforming,
				"%s %q does not match %q", label, value, def.Standard)
		}
	}

	return nil
}

// checkAuxiliary requires a value for every active auxiliary field.
func checkAuxiliary(def ir.StageDefinition, values ir.AuxValues) *Decision {
	for i, field := range def.Aux {
		if field.Active() && values[i] == "" {
			return reject(ir.ReasonAuxiliaryFieldMissing, "auxiliary field %q is required", field.Label)
		}
	}
	return nil
}

func reject(reason ir.FailureReason, format string, args ...any) *Decision {
	return &Decision{
		Status: ir.StatusError,
		Reason: reason,
		Note:   fmt.Sprintf(format, args...),
	}
}
