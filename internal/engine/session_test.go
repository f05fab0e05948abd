package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scanline/internal/ir"
)

func TestSession_PatternList(t *testing.T) {
	s := Session{Patterns: "  ABC   DEF\tGHI "}
	assert.Equal(t, []string{"ABC", "DEF", "GHI"}, s.PatternList())
	assert.Empty(t, Session{}.PatternList())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("s1", "s2")
	assert.Equal(t, "s1", gen.Generate())
	assert.Equal(t, "s2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestScanEvent_Normalize(t *testing.T) {
	ev := ScanEvent{
		ProductCode: " ABC ",
		DefectCode:  "\tNG01\n",
		Measurement: " 9,5 ",
		Aux:         ir.AuxValues{" a ", "", " "},
	}.Normalize()

	assert.Equal(t, "ABC", ev.ProductCode)
	assert.Equal(t, "NG01", ev.DefectCode)
	assert.Equal(t, "9,5", ev.Measurement)
	assert.Equal(t, ir.AuxValues{"a"}, ev.Aux)
}

func TestScanEvent_IsBlank(t *testing.T) {
	assert.True(t, ScanEvent{}.IsBlank())
	assert.True(t, ScanEvent{ProductCode: " \t"}.IsBlank())
	assert.False(t, ScanEvent{ProductCode: "A"}.IsBlank())
}

func TestScanEvent_ApplyDefaults(t *testing.T) {
	var aux ir.AuxFields
	aux[0] = ir.AuxField{Label: "Inspector"}
	aux[1] = ir.AuxField{Label: "Color", Default: "Black", HasDefault: true}
	aux[2] = ir.AuxField{Default: "ignored", HasDefault: true} // inactive
	def := ir.StageDefinition{ID: 1, Name: "QC", Aux: aux}

	ev := ScanEvent{}.ApplyDefaults(def)
	assert.Equal(t, ir.AuxValues{"", "Black"}, ev.Aux)

	ev = ScanEvent{Aux: ir.AuxValues{"", "Red"}}.ApplyDefaults(def)
	assert.Equal(t, "Red", ev.Aux[1], "typed value wins")
}
