package stage

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scanline/internal/ir"
)

// yamlStage is the interchange view of a stage: inactive aux slots are
// dropped and the standard is rendered as configured.
type yamlStage struct {
	ID               int           `yaml:"id"`
	Name             string        `yaml:"name"`
	Measurement      bool          `yaml:"measurement"`
	MeasurementLabel string        `yaml:"measurement_label,omitempty"`
	Standard         string        `yaml:"standard,omitempty"`
	StandardKind     string        `yaml:"standard_kind,omitempty"`
	Aux              []yamlAuxSlot `yaml:"aux,omitempty"`
}

type yamlAuxSlot struct {
	Slot    int     `yaml:"slot"`
	Label   string  `yaml:"label"`
	Default *string `yaml:"default,omitempty"`
}

// EncodeYAML writes the registry as a YAML document for configuration
// tooling and operator review.
func EncodeYAML(w io.Writer, r *Registry) error {
	doc := struct {
		Stages []yamlStage `yaml:"stages"`
	}{}

	for _, def := range r.Stages() {
		doc.Stages = append(doc.Stages, toYAMLStage(def))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	return enc.Close()
}

func toYAMLStage(def ir.StageDefinition) yamlStage {
	s := yamlStage{
		ID:               int(def.ID),
		Name:             def.Name,
		Measurement:      def.MeasurementRequired,
		MeasurementLabel: def.MeasurementLabel,
		Standard:         def.Standard.String(),
		StandardKind:     string(def.Standard.Kind),
	}
	for i, f := range def.Aux {
		if !f.Active() {
			continue
		}
		slot := yamlAuxSlot{Slot: i + 1, Label: f.Label}
		if f.HasDefault {
			d := f.Default
			slot.Default = &d
		}
		s.Aux = append(s.Aux, slot)
	}
	return s
}
