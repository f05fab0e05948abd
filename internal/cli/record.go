package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/ir"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	eventFlags
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <code>",
		Short: "Submit one scan",
		Long: `Validate one scanned code at a stage and append the outcome to the ledger.

A rejected scan is still recorded; the command exits 1 so scripts can tell.

Exit codes:
  0 - Scan passed (valid) or a defect was recorded
  1 - Scan rejected (error outcome)
  2 - Command error (unknown stage, database not found, etc.)

Examples:
  scanline record ABC123 --stage 1
  scanline record ABC123 --stage 2 --measure 9.5
  scanline record ABC123 --stage 3 --measure PASS --aux 1=Kim
  scanline record ABC123 --stage 2 --defect NG01 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}
	opts.eventFlags.register(cmd)

	return cmd
}

func runRecord(opts *RecordOptions, code string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	ev, err := opts.event(code)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid scan input", err)
	}

	env, err := openStation(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	out := newPrinter(opts.RootOptions, cmd)

	outcome, err := env.station.Submit(ctx, ev)
	if err != nil {
		return WrapExitError(ExitCommandError, "scan not recorded", err)
	}
	if outcome == nil {
		return NewExitError(ExitCommandError, "blank code: nothing recorded")
	}

	view := newOutcomeView(outcome, env.station.Progress(outcome.Record.ProductCode))
	if err := out.OK(view); err != nil {
		return err
	}
	if outcome.Kind == ir.StatusError {
		return NewExitError(ExitFailure, outcome.Record.Note)
	}
	return nil
}
