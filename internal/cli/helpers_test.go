package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testStagesCUE = `stages: [
	{name: "Assembly"},
	{
		name: "Voltage test"
		measurement: {label: "Voltage", standard: "10"}
	},
	{
		name: "Visual QC"
		measurement: {label: "Result", standard: "PASS"}
		aux: [{label: "Inspector"}, {label: "Color", default: "Black"}]
	},
]
`

// testStation is a temp directory holding a stage file and a ledger path.
type testStation struct {
	dir    string
	db     string
	stages string
}

func newTestStation(t *testing.T) *testStation {
	t.Helper()
	dir := t.TempDir()
	ts := &testStation{
		dir:    dir,
		db:     filepath.Join(dir, "scanline.db"),
		stages: filepath.Join(dir, "stages.cue"),
	}
	require.NoError(t, os.WriteFile(ts.stages, []byte(testStagesCUE), 0644))
	return ts
}

// args appends the station flags to a command line.
func (ts *testStation) args(args ...string) []string {
	return append(args,
		"--db", ts.db,
		"--stages", ts.stages,
		"--model", "x100",
		"--patterns", "ABC DEF",
		"--export-dir", ts.dir,
	)
}

// runCLI executes the root command and returns its stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
