// Package ir provides the canonical data types shared by every scanline
// package: stage definitions, scan records, unit progress and outcomes.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps IR
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Stage ids are dense ordinals starting at 1
//   - Auxiliary fields are a fixed [MaxAuxFields] array, never a slice
//   - Measurement standards are decided once (ParseStandard), never re-sniffed
//   - Ledger ordering uses the logical seq, never wall-clock timestamps
//   - All JSON tags use snake_case
package ir
