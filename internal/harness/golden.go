package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scanline/internal/ir"
)

// LedgerSnapshot captures what a scenario committed.
// All fields use canonical JSON serialization for deterministic comparison.
type LedgerSnapshot struct {
	ScenarioName string
	SessionID    string
	Trace        []ir.ScanRecord
	Progress     map[string]ir.UnitProgress
}

// NewLedgerSnapshot builds the snapshot of a result.
func NewLedgerSnapshot(name string, result *Result) LedgerSnapshot {
	return LedgerSnapshot{
		ScenarioName: name,
		SessionID:    result.SessionID,
		Trace:        result.Trace,
		Progress:     result.Progress,
	}
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical
// JSON serialization. ir.MarshalCanonical only handles IR-level primitives.
func (s LedgerSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, rec := range s.Trace {
		trace[i] = ir.CanonicalRecord(rec)
	}

	codes := make([]string, 0, len(s.Progress))
	for code := range s.Progress {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	progress := make(map[string]any, len(codes))
	for _, code := range codes {
		p := s.Progress[code]
		progress[code] = map[string]any{
			"highest_stage_passed": p.HighestStagePassed,
			"defect_pending":       p.DefectPending,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session_id":    s.SessionID,
		"trace":         trace,
		"progress":      progress,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s LedgerSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// GoldenFile is the path of a stored ledger snapshot.
type GoldenFile string

// GoldenFor returns the golden file of the named scenario loaded from
// scenarioFile. An empty dir means a golden/ directory next to it.
func GoldenFor(dir, scenarioFile, name string) GoldenFile {
	if dir == "" {
		dir = filepath.Join(filepath.Dir(scenarioFile), "golden")
	}
	return GoldenFile(filepath.Join(dir, name+".golden"))
}

// Exists reports whether the golden file has been recorded.
func (g GoldenFile) Exists() bool {
	_, err := os.Stat(string(g))
	return err == nil
}

// Record writes snap, creating the directory if needed.
func (g GoldenFile) Record(snap LedgerSnapshot) error {
	data, err := snap.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(string(g)), 0755); err != nil {
		return err
	}
	return os.WriteFile(string(g), data, 0644)
}

// Matches reports whether snap is byte-identical to the recording.
// A missing recording is an error.
func (g GoldenFile) Matches(snap LedgerSnapshot) (bool, error) {
	want, err := os.ReadFile(string(g))
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("no golden file at %s", g)
	}
	if err != nil {
		return false, err
	}
	got, err := snap.MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("marshal ledger: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden executes a scenario and compares its ledger against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the ledger doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewLedgerSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
