package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// ResetResult is the output of the reset command.
type ResetResult struct {
	PreviousSessionID string `json:"previous_session_id"`
	SessionID         string `json:"session_id"`
	RecordsDropped    int    `json:"records_dropped"`
}

func (r ResetResult) String() string {
	return fmt.Sprintf("Session %s closed (%d records dropped). New session %s.",
		r.PreviousSessionID, r.RecordsDropped, r.SessionID)
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the ledger and start a new session",
		Long: `End the open session: ledger, unit progress and counters are cleared
together and a new session id is issued. Stage assignments are kept.

Export first if the records are needed; reset cannot be undone.

Examples:
  scanline export && scanline reset --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm the reset")

	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "reset drops every record of the session; pass --yes to confirm")
	}

	ctx := commandContext(cmd)
	env, err := openStation(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	result := ResetResult{
		PreviousSessionID: env.station.SessionID(),
		RecordsDropped:    len(env.station.Records()),
	}
	if result.SessionID, err = env.station.Reset(ctx); err != nil {
		return WrapExitError(ExitCommandError, "reset failed", err)
	}

	out := newPrinter(opts.RootOptions, cmd)
	return out.OK(result)
}
