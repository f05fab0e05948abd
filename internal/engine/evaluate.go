package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/scanline/internal/ir"
)

// Decision is the verdict of Evaluate for one event.
type Decision struct {
	Status ir.Status
	Reason ir.FailureReason // empty unless Status == StatusError
	Note   string
}

// Input bundles everything Evaluate looks at. It is a snapshot: nothing in
// it is read again after Evaluate returns.
type Input struct {
	Event    ScanEvent
	Session  Session
	Stage    ir.StageDefinition
	Progress ir.UnitProgress
	Employee string
}

// rule is one step of the ordered rule list. A non-nil Decision ends
// evaluation.
type rule struct {
	name  string
	check func(in *Input) *Decision
}

// rules is the complete decision procedure, in evaluation order.
//
// INVARIANT: order is part of the contract. The first rule that returns a
// Decision wins, so e.g. a scan that is both a pattern mismatch and out of
// sequence is always reported as PATTERN_MISMATCH.
var rules = []rule{
	{"model_name", checkModelName},
	{"validation_list", checkValidationList},
	{"employee", checkEmployee},
	{"pattern", checkPattern},
	{"defect_declared", checkDefectDeclared},
	{"measurement", func(in *Input) *Decision { return checkMeasurement(in.Stage, in.Event.Measurement) }},
	{"auxiliary", func(in *Input) *Decision { return checkAuxiliary(in.Stage, in.Event.Aux) }},
	{"unresolved_defect", checkUnresolvedDefect},
	{"already_passed", checkAlreadyPassed},
	{"sequence", checkSequence},
}

// Evaluate decides the outcome of one scan event.
//
// Evaluate is a pure function of its inputs: identical inputs always yield
// identical decisions. It does not apply side effects; Tracker.Apply does
// that from the returned Status.
func Evaluate(ev ScanEvent, session Session, stage ir.StageDefinition, progress ir.UnitProgress, employee string) Decision {
	in := &Input{
		Event:    ev,
		Session:  session,
		Stage:    stage,
		Progress: progress,
		Employee: strings.TrimSpace(employee),
	}

	for _, r := range rules {
		if d := r.check(in); d != nil {
			return *d
		}
	}

	return Decision{
		Status: ir.StatusValid,
		Note:   fmt.Sprintf("passed stage %d", stage.ID),
	}
}

func checkModelName(in *Input) *Decision {
	if in.Session.normalizedModel() == "" {
		return reject(ir.ReasonMissingModelName, "model name is not set")
	}
	return nil
}

func checkValidationList(in *Input) *Decision {
	if len(in.Session.PatternList()) == 0 {
		return reject(ir.ReasonMissingValidationList, "validation list is empty")
	}
	return nil
}

func checkEmployee(in *Input) *Decision {
	if in.Employee == "" {
		return reject(ir.ReasonMissingEmployee, "no employee assigned to stage %d (%s)", in.Stage.ID, in.Stage.Name)
	}
	return nil
}

func checkPattern(in *Input) *Decision {
	for _, p := range in.Session.PatternList() {
		if ir.ContainsFold(in.Event.ProductCode, p) {
			return nil
		}
	}
	return reject(ir.ReasonPatternMismatch, "wrong model: %s matches no validation pattern", in.Event.ProductCode)
}

// checkDefectDeclared honours an operator's defect declaration as soon as
// the unit is known to belong to the run. Measurement, auxiliary and
// sequencing rules are skipped.
func checkDefectDeclared(in *Input) *Decision {
	if in.Event.DefectCode == "" {
		return nil
	}
	return &Decision{
		Status: ir.StatusDefect,
		Note:   fmt.Sprintf("defect %s at stage %d", in.Event.DefectCode, in.Stage.ID),
	}
}

// checkUnresolvedDefect blocks a defective unit from moving past the stage
// right after its last pass. Re-verification happens at HighestStagePassed+1,
// regardless of the stage where the defect was declared.
func checkUnresolvedDefect(in *Input) *Decision {
	p := in.Progress
	if p.DefectPending && int(in.Stage.ID) > p.HighestStagePassed+1 {
		return reject(ir.ReasonUnresolvedDefect,
			"unresolved defect: re-verify at stage %d first", p.HighestStagePassed+1)
	}
	return nil
}

func checkAlreadyPassed(in *Input) *Decision {
	if in.Progress.HighestStagePassed >= int(in.Stage.ID) {
		return reject(ir.ReasonAlreadyPassed, "duplicate: %s already passed stage %d", in.Event.ProductCode, in.Stage.ID)
	}
	return nil
}

func checkSequence(in *Input) *Decision {
	id := int(in.Stage.ID)
	if id > 1 && in.Progress.HighestStagePassed < id-1 {
		return reject(ir.ReasonOutOfSequence, "out of sequence: stage %d not passed yet", id-1)
	}
	return nil
}

// RuleNames returns the rule list in evaluation order, for diagnostics.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
