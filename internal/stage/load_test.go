package stage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func TestLoad_Testdata(t *testing.T) {
	reg, err := Load(filepath.Join("testdata", "stages.cue"))
	require.NoError(t, err)
	require.Equal(t, 4, reg.Len())

	assembly, _ := reg.Get(1)
	assert.Equal(t, "Assembly", assembly.Name)
	assert.False(t, assembly.MeasurementRequired)
	assert.Equal(t, 0, assembly.Aux.ActiveCount())

	voltage, _ := reg.Get(2)
	assert.True(t, voltage.MeasurementRequired)
	assert.Equal(t, "Voltage", voltage.MeasurementLabel)
	assert.Equal(t, ir.StandardNumeric, voltage.Standard.Kind)
	assert.True(t, decimal.NewFromInt(10).Equal(voltage.Standard.Bound))

	qc, _ := reg.Get(3)
	assert.Equal(t, ir.StandardExact, qc.Standard.Kind)
	assert.Equal(t, "PASS", qc.Standard.Text)
	assert.Equal(t, ir.AuxField{Label: "Inspector"}, qc.Aux[0])
	assert.Equal(t, ir.AuxField{Label: "Color", Default: "Black", HasDefault: true}, qc.Aux[1])
	assert.Equal(t, 2, qc.Aux.ActiveCount())

	packing, _ := reg.Get(4)
	assert.False(t, packing.MeasurementRequired, "required: false honoured")
	assert.Equal(t, "Weight", packing.MeasurementLabel)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no stages", `stages: []`},
		{"missing stages", `other: 1`},
		{"blank name", `stages: [{name: "  "}]`},
		{"name wrong type", `stages: [{name: 1}]`},
		{"unknown field", `stages: [{name: "A", colour: "red"}]`},
		{"standard wrong type", `stages: [{name: "A", measurement: {standard: 10}}]`},
		{"too many aux", `stages: [{name: "A", aux: [
			{label: "1"}, {label: "2"}, {label: "3"}, {label: "4"}, {label: "5"},
			{label: "6"}, {label: "7"}, {label: "8"}, {label: "9"},
		]}]`},
		{"syntax", `stages: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			var regErr *RegistryError
			assert.ErrorAs(t, err, &regErr)
		})
	}
}

func TestParse_EightAuxAllowed(t *testing.T) {
	src := `stages: [{name: "A", aux: [
		{label: "1"}, {label: "2"}, {label: "3"}, {label: "4"},
		{label: "5"}, {label: "6"}, {label: "7"}, {label: "8", default: ""},
	]}]`

	reg, err := Parse([]byte(src), "eight.cue")
	require.NoError(t, err)

	def, _ := reg.Get(1)
	assert.Equal(t, 8, def.Aux.ActiveCount())
	assert.True(t, def.Aux[7].HasDefault, "explicit empty default is still a default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestEncodeYAML(t *testing.T) {
	reg, err := Load(filepath.Join("testdata", "stages.cue"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "name: Voltage test")
	assert.Contains(t, out, "standard_kind: numeric")
	assert.Contains(t, out, "standard: PASS")
	assert.Contains(t, out, "label: Color")
	assert.Contains(t, out, "default: Black")
}

func writeStageFile(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "stages.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
