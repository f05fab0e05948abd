package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/ir"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Stage int // 0 = every stage
}

// StageStats is one row of stats output.
type StageStats struct {
	Stage   int    `json:"stage_id"`
	Name    string `json:"name"`
	Success int    `json:"success"`
	Defect  int    `json:"defect"`
	Error   int    `json:"error"`
}

// StatsResult is the output of the stats command.
type StatsResult struct {
	SessionID string       `json:"session_id"`
	Records   int          `json:"records"`
	Units     int          `json:"units"`
	Stages    []StageStats `json:"stages"`
}

// String renders the result as an aligned table.
func (r StatsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d records, %d units\n", r.SessionID, r.Records, r.Units)
	fmt.Fprintf(&b, "%-5s %-20s %7s %7s %7s\n", "STAGE", "NAME", "SUCCESS", "DEFECT", "ERROR")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "%-5d %-20s %7d %7d %7d\n", s.Stage, s.Name, s.Success, s.Defect, s.Error)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// statsView is the one-line form used by the scan loop.
type statsView engine.Stats

func (s statsView) String() string {
	return fmt.Sprintf("stage %d: success %d, defect %d, error %d", s.Stage, s.Success, s.Defect, s.Error)
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-stage counters for the open session",
		Long: `Show success and defect counts per stage, derived from the ledger.

The error count is session-wide: a rejected scan never advanced any stage.

Examples:
  scanline stats
  scanline stats --stage 2 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.Stage, "stage", 0, "only this stage (default: all)")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	env, err := openStation(commandContext(cmd), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	st := env.station
	var stats []engine.Stats
	if opts.Stage != 0 {
		id := ir.StageID(opts.Stage)
		if _, ok := env.registry.Get(id); !ok {
			return WrapExitError(ExitCommandError, "invalid --stage", engine.NewUnknownStageError(id, env.registry.Len()))
		}
		stats = []engine.Stats{st.Stats(id)}
	} else {
		stats = st.StatsAll()
	}

	result := StatsResult{
		SessionID: st.SessionID(),
		Records:   len(st.Records()),
		Units:     len(st.ProgressSnapshot()),
		Stages:    make([]StageStats, 0, len(stats)),
	}
	for _, s := range stats {
		result.Stages = append(result.Stages, StageStats{
			Stage:   int(s.Stage),
			Name:    env.registry.Name(s.Stage),
			Success: s.Success,
			Defect:  s.Defect,
			Error:   s.Error,
		})
	}

	out := newPrinter(opts.RootOptions, cmd)
	return out.OK(result)
}
