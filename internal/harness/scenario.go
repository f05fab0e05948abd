package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// Scenario defines a scan scenario: a stage layout, a session, and an
// ordered list of steps with the outcome each one must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StagesFile is a CUE stage registry, relative to the scenario file.
	// Exactly one of StagesFile and Stages must be set.
	StagesFile string `yaml:"stages_file,omitempty"`

	// Stages is an inline stage layout. IDs are assigned in order from 1.
	Stages []StageSpec `yaml:"stages,omitempty"`

	Session SessionSpec `yaml:"session"`

	// Assignments maps stage id to employee before the first step.
	Assignments map[int]string `yaml:"assignments,omitempty"`

	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// StageSpec is one inline stage definition.
type StageSpec struct {
	Name        string           `yaml:"name"`
	Measurement *MeasurementSpec `yaml:"measurement,omitempty"`
	Aux         []AuxSpec        `yaml:"aux,omitempty"`
}

// MeasurementSpec configures the measurement input of a stage.
type MeasurementSpec struct {
	// Required defaults to true when the measurement block is present.
	Required *bool  `yaml:"required,omitempty"`
	Label    string `yaml:"label,omitempty"`
	Standard string `yaml:"standard,omitempty"`
}

// AuxSpec is one auxiliary field.
type AuxSpec struct {
	Label   string  `yaml:"label"`
	Default *string `yaml:"default,omitempty"`
}

// SessionSpec is the operator session for the run.
type SessionSpec struct {
	Model    string `yaml:"model"`
	Patterns string `yaml:"patterns"`
	Shift    string `yaml:"shift,omitempty"`
	Operator string `yaml:"operator,omitempty"`
}

// Step is one scenario step. A step is an assignment if Assign is set, a
// reset if Reset is true, and a scan otherwise.
type Step struct {
	Code    string         `yaml:"code,omitempty"`
	Stage   int            `yaml:"stage,omitempty"`
	Defect  string         `yaml:"defect,omitempty"`
	Measure string         `yaml:"measure,omitempty"`
	Aux     map[int]string `yaml:"aux,omitempty"` // 1-based slot -> value

	Assign *AssignStep `yaml:"assign,omitempty"`
	Reset  bool        `yaml:"reset,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// AssignStep changes the employee of a stage mid-scenario.
type AssignStep struct {
	Stage    int    `yaml:"stage"`
	Employee string `yaml:"employee"`
}

// ExpectClause specifies the expected outcome of a scan step.
type ExpectClause struct {
	// Status is valid, defect or error. Required unless Dropped.
	Status string `yaml:"status,omitempty"`

	// Reason is the expected failure reason for an error outcome.
	Reason string `yaml:"reason,omitempty"`

	// Note, if set, must appear verbatim in the record note.
	Note string `yaml:"note,omitempty"`

	// Progress is the unit's expected progress after the step.
	Progress *ProgressSpec `yaml:"progress,omitempty"`

	// Dropped expects a blank scan that produced no record.
	Dropped bool `yaml:"dropped,omitempty"`
}

// ProgressSpec is an expected ir.UnitProgress.
type ProgressSpec struct {
	Highest int  `yaml:"highest"`
	Pending bool `yaml:"pending"`
}

// UnitProgress converts the clause to the engine type.
func (p ProgressSpec) UnitProgress() ir.UnitProgress {
	return ir.UnitProgress{HighestStagePassed: p.Highest, DefectPending: p.Pending}
}

// Step kinds.
const (
	StepScan   = "scan"
	StepAssign = "assign"
	StepReset  = "reset"
)

// Kind classifies the step.
func (s Step) Kind() string {
	switch {
	case s.Assign != nil:
		return StepAssign
	case s.Reset:
		return StepReset
	default:
		return StepScan
	}
}

// Assertion validates the final state of a run.
type Assertion struct {
	// Type is one of progress, stats, ledger_count, reason_count,
	// status_count.
	Type string `yaml:"type"`

	// Code is the product code (progress).
	Code      string `yaml:"code,omitempty"`
	Highest   int    `yaml:"highest,omitempty"`
	Pending   bool   `yaml:"pending,omitempty"`
	Untouched bool   `yaml:"untouched,omitempty"` // progress: unit never seen

	// Stage, Success, Defect, Error (stats).
	Stage   int `yaml:"stage,omitempty"`
	Success int `yaml:"success,omitempty"`
	Defect  int `yaml:"defect,omitempty"`
	Error   int `yaml:"error,omitempty"`

	// Reason or Status with Count (reason_count, status_count); Count
	// alone for ledger_count.
	Reason string `yaml:"reason,omitempty"`
	Status string `yaml:"status,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertProgress    = "progress"
	AssertStats       = "stats"
	AssertLedgerCount = "ledger_count"
	AssertReasonCount = "reason_count"
	AssertStatusCount = "status_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative
// stages_file is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.StagesFile != "" && !filepath.IsAbs(scenario.StagesFile) {
		scenario.StagesFile = filepath.Join(filepath.Dir(path), scenario.StagesFile)
	}
	if scenario.StagesFile != "" {
		if _, err := os.Stat(scenario.StagesFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: stages file not found: %s", scenario.StagesFile)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "expected:" vs "expect:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch {
	case s.StagesFile == "" && len(s.Stages) == 0:
		return fmt.Errorf("one of stages or stages_file is required")
	case s.StagesFile != "" && len(s.Stages) > 0:
		return fmt.Errorf("stages and stages_file are mutually exclusive")
	}

	for i, st := range s.Stages {
		if st.Name == "" {
			return fmt.Errorf("stages[%d]: name is required", i)
		}
		if len(st.Aux) > ir.MaxAuxFields {
			return fmt.Errorf("stages[%d]: at most %d aux fields", i, ir.MaxAuxFields)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	if step.Assign != nil && step.Reset {
		return fmt.Errorf("steps[%d]: assign and reset are mutually exclusive", index)
	}

	switch step.Kind() {
	case StepAssign:
		if step.Code != "" || step.Expect != nil {
			return fmt.Errorf("steps[%d]: an assign step takes no code or expect", index)
		}
		if step.Assign.Stage < 1 {
			return fmt.Errorf("steps[%d].assign: stage is required", index)
		}
	case StepReset:
		if step.Code != "" || step.Expect != nil {
			return fmt.Errorf("steps[%d]: a reset step takes no code or expect", index)
		}
	case StepScan:
		if step.Stage < 1 {
			return fmt.Errorf("steps[%d]: stage is required", index)
		}
		for slot := range step.Aux {
			if slot < 1 || slot > ir.MaxAuxFields {
				return fmt.Errorf("steps[%d].aux: slot %d out of range 1..%d", index, slot, ir.MaxAuxFields)
			}
		}
		if e := step.Expect; e != nil {
			if e.Dropped {
				if e.Status != "" || e.Reason != "" || e.Progress != nil {
					return fmt.Errorf("steps[%d].expect: dropped takes no status, reason or progress", index)
				}
				break
			}
			if !ir.Status(e.Status).IsValid() {
				return fmt.Errorf("steps[%d].expect: unknown status %q", index, e.Status)
			}
			if e.Reason != "" && !knownReason(e.Reason) {
				return fmt.Errorf("steps[%d].expect: unknown reason %q", index, e.Reason)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertProgress:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for progress", index)
		}
	case AssertStats:
		if a.Stage < 1 {
			return fmt.Errorf("assertions[%d]: stage is required for stats", index)
		}
	case AssertLedgerCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertReasonCount:
		if !knownReason(a.Reason) {
			return fmt.Errorf("assertions[%d]: unknown reason %q", index, a.Reason)
		}
	case AssertStatusCount:
		if !ir.Status(a.Status).IsValid() {
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownReason(s string) bool {
	for _, r := range ir.AllFailureReasons {
		if string(r) == s {
			return true
		}
	}
	return false
}

// BuildRegistry returns the scenario's stage registry.
func (s *Scenario) BuildRegistry() (*stage.Registry, error) {
	if s.StagesFile != "" {
		return stage.Load(s.StagesFile)
	}

	defs := make([]ir.StageDefinition, len(s.Stages))
	for i, spec := range s.Stages {
		defs[i] = spec.definition(ir.StageID(i + 1))
	}
	return stage.NewRegistry(defs)
}

func (spec StageSpec) definition(id ir.StageID) ir.StageDefinition {
	def := ir.StageDefinition{ID: id, Name: spec.Name}
	if m := spec.Measurement; m != nil {
		def.MeasurementRequired = m.Required == nil || *m.Required
		def.MeasurementLabel = m.Label
		if def.MeasurementRequired {
			def.Standard = ir.ParseStandard(m.Standard)
		}
	}
	for i, aux := range spec.Aux {
		field := ir.AuxField{Label: aux.Label}
		if aux.Default != nil {
			field.Default = *aux.Default
			field.HasDefault = true
		}
		def.Aux[i] = field
	}
	return def
}
