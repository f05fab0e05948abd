// Package engine implements the scan validation engine of a production line.
//
// A Station is the session context of one scanning station. It owns the
// four pieces of state the line cares about:
//
//   - Tracker: per-unit progress (highest stage passed, defect pending)
//   - Ledger: the append-only, seq-numbered record of every event
//   - assignments: which employee is responsible for each stage
//   - Session: model name, acceptance patterns, shift and operator
//
// Event Processing Flow:
//  1. The caller submits a ScanEvent; blank codes are dropped
//  2. The stage definition is read from the current registry
//  3. Blank aux values are filled from stage defaults
//  4. Evaluate runs the ordered rule list and returns a Decision
//  5. The record is stamped (seq, id) and handed to the Journal
//  6. Only after the journal accepts it is it appended and applied
//
// Evaluate is a pure function. Stats are derived from the ledger on demand
// and never cached, so they cannot drift from it.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Records are numbered by Clock, starting at 1 for every session. Ledger
// order never depends on wall-clock time.
//
// Content-Addressed Records:
// Record IDs hash (session, seq, code, stage, status). Replaying the same
// events under the same session id yields the same ledger, byte for byte.
//
// Single Writer:
// Every mutation goes through the Station lock. Reset clears ledger,
// tracker and journal together or not at all.
package engine
