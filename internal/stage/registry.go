package stage

import (
	"fmt"
	"strings"

	"github.com/roach88/scanline/internal/ir"
)

// Registry is an immutable, ordered catalogue of stage definitions.
//
// INVARIANTS:
//   - stages[i].ID == i+1 (dense, declaration order)
//   - every name is non-empty
//   - a stage without a required measurement has no Standard
type Registry struct {
	stages []ir.StageDefinition
}

// NewRegistry validates and normalises defs into a Registry.
//
// IDs must already be dense and ordered (1, 2, ... N). The slice is copied
// so later mutation by the caller cannot break the invariants.
func NewRegistry(defs []ir.StageDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, &RegistryError{Field: "stages", Message: "at least one stage is required"}
	}

	stages := make([]ir.StageDefinition, len(defs))
	for i, def := range defs {
		want := ir.StageID(i + 1)
		if def.ID != want {
			return nil, &RegistryError{
				Field:   fmt.Sprintf("stages[%d].id", i),
				Message: fmt.Sprintf("stage ids must be dense and ordered: got %d, want %d", def.ID, want),
			}
		}
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, &RegistryError{
				Field:   fmt.Sprintf("stages[%d].name", i),
				Message: "stage name is required",
			}
		}
		if !def.MeasurementRequired {
			def.Standard = ir.Standard{}
		}
		for j := range def.Aux {
			def.Aux[j].Label = strings.TrimSpace(def.Aux[j].Label)
			if !def.Aux[j].Active() {
				def.Aux[j] = ir.AuxField{}
			}
		}
		stages[i] = def
	}

	return &Registry{stages: stages}, nil
}

// MustRegistry is NewRegistry that panics on error. For tests and
// literals known to be valid.
func MustRegistry(defs ...ir.StageDefinition) *Registry {
	r, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the definition for id.
func (r *Registry) Get(id ir.StageID) (ir.StageDefinition, bool) {
	if r == nil || id < 1 || int(id) > len(r.stages) {
		return ir.StageDefinition{}, false
	}
	return r.stages[id-1], true
}

// Name returns the stage name for id, or "" if the stage is unknown.
func (r *Registry) Name(id ir.StageID) string {
	def, ok := r.Get(id)
	if !ok {
		return ""
	}
	return def.Name
}

// Len returns the number of stages.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.stages)
}

// Stages returns a copy of the definitions in order.
func (r *Registry) Stages() []ir.StageDefinition {
	if r == nil {
		return nil
	}
	out := make([]ir.StageDefinition, len(r.stages))
	copy(out, r.stages)
	return out
}

// RegistryError reports an invalid stage catalogue.
type RegistryError struct {
	Field   string
	Message string
	Pos     string // "file:line:col" when the error came from a CUE source
}

func (e *RegistryError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
