package stage

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/scanline/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// stageFile mirrors the CUE document after schema defaults are applied.
type stageFile struct {
	Stages []stageEntry `json:"stages"`
}

type stageEntry struct {
	Name        string            `json:"name"`
	Measurement *measurementEntry `json:"measurement,omitempty"`
	Aux         []auxEntry        `json:"aux,omitempty"`
}

type measurementEntry struct {
	Required bool   `json:"required"`
	Label    string `json:"label"`
	Standard string `json:"standard"`
}

type auxEntry struct {
	Label   string  `json:"label"`
	Default *string `json:"default,omitempty"`
}

// Load reads and validates a CUE stage file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage file: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE source against the embedded schema and builds a
// Registry. filename is used for error positions only.
//
// The standard of every stage is classified here, once, via
// ir.ParseStandard.
func Parse(src []byte, filename string) (*Registry, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}

	doc := ctx.CompileBytes(src, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	value := schema.Unify(doc)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var file stageFile
	if err := value.Decode(&file); err != nil {
		return nil, formatCUEError(err)
	}

	defs := make([]ir.StageDefinition, len(file.Stages))
	for i, entry := range file.Stages {
		defs[i] = entry.toDefinition(ir.StageID(i + 1))
	}
	return NewRegistry(defs)
}

func (e stageEntry) toDefinition(id ir.StageID) ir.StageDefinition {
	def := ir.StageDefinition{
		ID:   id,
		Name: e.Name,
	}
	if e.Measurement != nil {
		def.MeasurementRequired = e.Measurement.Required
		def.MeasurementLabel = e.Measurement.Label
		def.Standard = ir.ParseStandard(e.Measurement.Standard)
	}
	for i, aux := range e.Aux {
		if i >= ir.MaxAuxFields {
			break // schema caps the list; guard anyway
		}
		field := ir.AuxField{Label: aux.Label}
		if aux.Default != nil {
			field.Default = *aux.Default
			field.HasDefault = true
		}
		def.Aux[i] = field
	}
	return def
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors; report the first with a position
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		pos := positions[0]
		return &RegistryError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column()),
		}
	}

	return &RegistryError{Field: "cue", Message: first.Error()}
}
