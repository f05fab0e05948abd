package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func TestNewRegistry_Valid(t *testing.T) {
	reg, err := NewRegistry([]ir.StageDefinition{
		{ID: 1, Name: "Assembly"},
		{ID: 2, Name: " Test ", MeasurementRequired: true, Standard: ir.ParseStandard("10")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	def, ok := reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Test", def.Name, "names are trimmed")
	assert.Equal(t, ir.StandardNumeric, def.Standard.Kind)
	assert.Equal(t, "Assembly", reg.Name(1))
	assert.Equal(t, "", reg.Name(3))
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name  string
		defs  []ir.StageDefinition
		field string
	}{
		{"empty", nil, "stages"},
		{"not starting at 1", []ir.StageDefinition{{ID: 2, Name: "A"}}, "stages[0].id"},
		{"gap", []ir.StageDefinition{{ID: 1, Name: "A"}, {ID: 3, Name: "B"}}, "stages[1].id"},
		{"unordered", []ir.StageDefinition{{ID: 2, Name: "A"}, {ID: 1, Name: "B"}}, "stages[0].id"},
		{"blank name", []ir.StageDefinition{{ID: 1, Name: "  "}}, "stages[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs)
			require.Error(t, err)
			var regErr *RegistryError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.field, regErr.Field)
		})
	}
}

func TestNewRegistry_NormalisesStandardAndAux(t *testing.T) {
	def := ir.StageDefinition{
		ID:               1,
		Name:             "Packing",
		MeasurementLabel: "Weight",
		Standard:         ir.ParseStandard("5"),
	}
	def.Aux[0] = ir.AuxField{Label: " Batch "}
	def.Aux[1] = ir.AuxField{Default: "orphan", HasDefault: true}

	reg := MustRegistry(def)
	got, _ := reg.Get(1)

	assert.False(t, got.Standard.IsSet(), "standard dropped when measurement not required")
	assert.Equal(t, "Weight", got.MeasurementLabel, "label kept for display")
	assert.Equal(t, "Batch", got.Aux[0].Label)
	assert.Equal(t, ir.AuxField{}, got.Aux[1], "inactive slot cleared")
}

func TestRegistry_StagesIsCopy(t *testing.T) {
	reg := MustRegistry(ir.StageDefinition{ID: 1, Name: "A"})
	stages := reg.Stages()
	stages[0].Name = "mutated"

	assert.Equal(t, "A", reg.Name(1))
}

func TestRegistry_NilSafe(t *testing.T) {
	var reg *Registry
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.Get(1)
	assert.False(t, ok)
	assert.Nil(t, reg.Stages())
}

func TestMustRegistry_Panics(t *testing.T) {
	assert.Panics(t, func() { MustRegistry() })
}
