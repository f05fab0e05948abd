package ir

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandard(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  StandardKind
		bound string
	}{
		{"blank", "", StandardNone, ""},
		{"whitespace", "   ", StandardNone, ""},
		{"integer", "10", StandardNumeric, "10"},
		{"decimal dot", "3.5", StandardNumeric, "3.5"},
		{"decimal comma", "3,5", StandardNumeric, "3.5"},
		{"negative", "-0.25", StandardNumeric, "-0.25"},
		{"text", "PASS", StandardExact, ""},
		{"mixed", "10V", StandardExact, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseStandard(tt.raw)
			assert.Equal(t, tt.kind, s.Kind)
			if tt.kind == StandardNumeric {
				assert.True(t, decimal.RequireFromString(tt.bound).Equal(s.Bound),
					"bound = %s, want %s", s.Bound, tt.bound)
			}
		})
	}
}

func TestParseStandardKeepsText(t *testing.T) {
	s := ParseStandard("  PASS ")
	assert.Equal(t, "PASS", s.Text)
	assert.True(t, s.IsSet())
	assert.False(t, ParseStandard("").IsSet())
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want string
	}{
		{"9", true, "9"},
		{" 12 ", true, "12"},
		{"9.99", true, "9.99"},
		{"9,99", true, "9.99"},
		{"1.234,5", true, "1234.5"},
		{"1,234.5", true, "1234.5"},
		{"1,2,3", false, ""},
		{"", false, ""},
		{"abc", false, ""},
		{"12mm", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, ok := ParseMeasurement(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(d), "got %s", d)
			}
		})
	}
}

func TestStandardJSON(t *testing.T) {
	data, err := json.Marshal(ParseStandard("10"))
	require.NoError(t, err)
	assert.Equal(t, `"10"`, string(data))

	var s Standard
	require.NoError(t, json.Unmarshal([]byte(`"PASS"`), &s))
	assert.Equal(t, StandardExact, s.Kind)

	require.NoError(t, json.Unmarshal([]byte(`"7,5"`), &s))
	assert.Equal(t, StandardNumeric, s.Kind)
}

func TestNumericAndExactConstructors(t *testing.T) {
	n := NumericStandard(decimal.NewFromInt(10))
	assert.Equal(t, StandardNumeric, n.Kind)
	assert.Equal(t, "10", n.String())

	e := ExactStandard("OK")
	assert.Equal(t, StandardExact, e.Kind)
	assert.Equal(t, "OK", e.String())
}
