package ir

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the caseless NFC form of s used for every case-insensitive
// comparison in scanline (pattern matching and exact standards).
//
// cases.Fold is stateful, so a fresh Caser is built per call.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// ContainsFold reports whether substr occurs in s ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// EqualFoldNFC reports whether a and b are equal ignoring case.
func EqualFoldNFC(a, b string) bool {
	return Fold(a) == Fold(b)
}

// SplitPatterns splits a space-delimited acceptance pattern list.
// Blank entries are dropped; order is preserved.
func SplitPatterns(list string) []string {
	return strings.Fields(list)
}
