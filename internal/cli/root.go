package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats are the values accepted by --format.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scanline CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scanline",
		Short: "scanline - production line scan validation",
		Long: `Validate barcode and IMEI scans against a multi-stage production process.

Every scan is checked against the active model, the validation pattern list,
the stage's measurement standard and the unit's progress, then recorded in an
append-only ledger.`,
		Version:      ir.EngineVersion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default ./scanline.yaml)")

	// Session settings; bound into config.Load by name.
	pf.String("model", "", "model name of the production run")
	pf.String("patterns", "", "space-delimited validation pattern list")
	pf.String("shift", "", "shift (DAY|NIGHT|SWING)")
	pf.String("operator", "", "operator name")
	pf.String("station", "", "station name")
	pf.String("db", "", "path to the SQLite ledger")
	pf.String("stages", "", "path to the CUE stage file")
	pf.String("export-dir", "", "directory for CSV reports")
	pf.String("timezone", "", "IANA time zone for record timestamps")

	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewAssignCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewStagesCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// configureLogging sends slog output to w. Station events (session
// started, stages reloaded) log at Info, so they only show with -v.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
