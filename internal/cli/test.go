package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool
	Filter    string
	GoldenDir string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Scans  int      `json:"scans"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarises a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>...",
		Short: "Run scan scenarios against a throwaway station",
		Long: `Run YAML scan scenarios. Each scenario gets its own in-memory station,
its steps are checked against their expected status, reason and
progress, and the final ledger is compared with golden/<name>.golden
when that file exists.

Exit codes:
  0 - Every scenario passed
  1 - At least one scenario failed
  2 - A scenario path does not exist

Examples:
  scanline test ./scenarios
  scanline test ./scenarios --filter "line1_*"
  scanline test ./scenarios --update
  scanline test ./scenarios/defect_gate.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current ledgers")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default: golden/ next to each scenario)")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	files, err := collectScenarios(paths, opts.Filter)
	if err != nil {
		return err
	}

	out := newPrinter(opts.RootOptions, cmd)
	if len(files) == 0 && !out.JSON() {
		fmt.Fprintln(out.Out, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		sr := runScenario(file, opts)
		if !out.JSON() {
			printScenario(out, sr)
		}
		result.add(sr)
	}

	if out.JSON() {
		var problem *Problem
		if result.Failed > 0 {
			problem = &Problem{Code: CodeTestFailed, Message: failedMessage(result.Failed)}
		}
		if err := out.Report(result, problem); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out.Out, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(out.Out, "✓ All scenarios passed")
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, failedMessage(result.Failed))
	}
	return nil
}

func failedMessage(n int) string {
	return fmt.Sprintf("%d scenario(s) failed", n)
}

// collectScenarios expands directories into the .yaml/.yml files below
// them. Explicit files are taken as given and never filtered.
func collectScenarios(paths []string, filter string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", p))
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			ok, err := scenarioMatches(path, filter)
			if ok {
				files = append(files, path)
			}
			return err
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
	}
	return files, nil
}

func scenarioMatches(path, filter string) (bool, error) {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return false, nil
	}
	if filter == "" {
		return true, nil
	}
	ok, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(path), ext))
	if err != nil {
		return false, fmt.Errorf("invalid filter pattern: %w", err)
	}
	return ok, nil
}

// runScenario runs one scenario file and checks or records its golden
// ledger. Step failures are reported even when --update rewrites the file.
func runScenario(file string, opts *TestOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failedScenario(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}

	run, err := harness.Run(scenario)
	if err != nil {
		return failedScenario(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	sr := ScenarioResult{Name: scenario.Name, Pass: run.Pass, Scans: len(run.Trace), Errors: run.Errors}
	snap := harness.NewLedgerSnapshot(scenario.Name, run)
	golden := harness.GoldenFor(opts.GoldenDir, file, scenario.Name)

	switch {
	case opts.Update:
		if err := golden.Record(snap); err != nil {
			return failedScenario(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		sr.Name += " (golden updated)"
	case golden.Exists():
		match, err := golden.Matches(snap)
		if err != nil {
			return failedScenario(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err))
		}
		if !match {
			sr.Pass = false
			sr.Errors = append(sr.Errors, "ledger does not match golden file (run with --update to regenerate)")
		}
	}
	return sr
}

func failedScenario(name string, msg string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: []string{msg}}
}

func printScenario(out *Printer, sr ScenarioResult) {
	if sr.Pass {
		fmt.Fprintf(out.Out, "✓ %s (%d scans)\n", sr.Name, sr.Scans)
		return
	}
	fmt.Fprintf(out.Out, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(out.Out, "  %s\n", e)
	}
}
