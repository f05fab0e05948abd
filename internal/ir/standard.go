package ir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StandardKind tags the Standard variant.
type StandardKind string

const (
	// StandardNone means any non-empty measurement conforms.
	StandardNone StandardKind = ""

	// StandardNumeric is an exclusive upper bound.
	StandardNumeric StandardKind = "numeric"

	// StandardExact is a case-insensitive exact text match.
	StandardExact StandardKind = "exact"
)

// Standard is the measurement conformance rule of a stage.
//
// It is decided once by ParseStandard when the registry is loaded, so the
// engine never re-sniffs whether a standard is a number.
type Standard struct {
	Kind  StandardKind
	Bound decimal.Decimal // valid when Kind == StandardNumeric
	Text  string          // original text; the match target when Kind == StandardExact
}

// ParseStandard classifies raw standard text. Blank text yields StandardNone.
func ParseStandard(raw string) Standard {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Standard{}
	}
	if d, ok := ParseMeasurement(text); ok {
		return Standard{Kind: StandardNumeric, Bound: d, Text: text}
	}
	return Standard{Kind: StandardExact, Text: text}
}

// NumericStandard builds a numeric standard directly.
func NumericStandard(bound decimal.Decimal) Standard {
	return Standard{Kind: StandardNumeric, Bound: bound, Text: bound.String()}
}

// ExactStandard builds an exact-match standard directly.
func ExactStandard(text string) Standard {
	return Standard{Kind: StandardExact, Text: text}
}

// IsSet reports whether a conformance rule exists.
func (s Standard) IsSet() bool {
	return s.Kind != StandardNone
}

// String returns the standard as configured.
func (s Standard) String() string {
	return s.Text
}

// MarshalJSON encodes the standard as its configured text.
func (s Standard) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UnmarshalJSON decodes configured text through ParseStandard.
func (s *Standard) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("standard: %w", err)
	}
	*s = ParseStandard(text)
	return nil
}

// MarshalYAML encodes the standard as its configured text.
func (s Standard) MarshalYAML() (any, error) {
	return s.Text, nil
}

// ParseMeasurement parses a decimal number typed on a shop floor keyboard.
//
// Both "." and "," are accepted as decimal separator. When both appear, the
// last one is the decimal separator and the other is a grouping mark
// ("1.234,5" and "1,234.5" are both 1234.5). Surrounding space is ignored.
func ParseMeasurement(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Decimal{}, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
