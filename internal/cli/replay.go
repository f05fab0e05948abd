package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/stage"
	"github.com/roach88/scanline/internal/store"
)

// ReplayReport is the outcome of replaying the open session.
type ReplayReport struct {
	Station       string `json:"station,omitempty"`
	SessionID     string `json:"session_id"`
	Records       int    `json:"records"`
	Units         int    `json:"units"`
	Original      string `json:"original_digest"`
	Replayed      string `json:"replayed_digest"`
	Deterministic bool   `json:"deterministic"`
	FirstDiverge  int64  `json:"first_diverge,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Re-validate the session ledger and check it reproduces",
		Long: `Feed every scan of the open session, in seq order, through a fresh
station built from the current stage file and compare the two ledgers.

A record stores the event that produced it, so an untouched ledger under
unchanged stage rules reproduces byte for byte. A difference means either
the ledger was edited or the rules moved since the scans were taken.

Exit codes:
  0 - Ledger reproduced
  1 - Ledgers diverge
  2 - Stage file or ledger could not be opened

Examples:
  scanline replay --db ./line1.db
  scanline replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := newPrinter(opts, cmd)

	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}
	reg, err := stage.Load(cfg.Stages)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load stages", err)
	}

	// Replay reads the ledger as it is. openStation would start a session
	// when none is open, which is a write.
	st, err := store.Open(cfg.DB, store.WithStation(cfg.Station))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	info, err := st.CurrentSession(ctx)
	switch {
	case errors.Is(err, store.ErrNoSession):
		fmt.Fprintln(out.Out, "No open session in database.")
		return nil
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	records, err := st.ReadRecords(ctx, info.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ledger", err)
	}
	replayed, err := engine.Replay(ctx, records, reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	report := ReplayReport{
		Station:       info.Station,
		SessionID:     info.ID,
		Records:       len(records),
		Units:         len(replayed.Progress),
		Original:      replayed.Original,
		Replayed:      replayed.Replayed,
		Deterministic: replayed.Identical(),
		FirstDiverge:  replayed.FirstDiverge,
	}
	if err := printReplay(out, report); err != nil {
		return err
	}
	if !report.Deterministic {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged at seq %d", report.FirstDiverge))
	}
	return nil
}

func printReplay(out *Printer, r ReplayReport) error {
	if out.JSON() {
		var problem *Problem
		if !r.Deterministic {
			problem = &Problem{
				Code:    CodeNondeterministic,
				Message: fmt.Sprintf("replay diverged at seq %d", r.FirstDiverge),
			}
		}
		return out.Report(r, problem)
	}

	fmt.Fprintf(out.Out, "Session %s: %d records, %d units\n", r.SessionID, r.Records, r.Units)
	out.Debugf("  original: %s", r.Original)
	out.Debugf("  replayed: %s", r.Replayed)
	if r.Deterministic {
		fmt.Fprintln(out.Out, "✓ Replay reproduced the ledger")
	} else {
		fmt.Fprintf(out.Out, "✗ Replay diverged at seq %d\n", r.FirstDiverge)
	}
	return nil
}
