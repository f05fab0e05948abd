package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/export"
	"github.com/roach88/scanline/internal/ir"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// ExportResult is the output of the export command.
type ExportResult struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

func (r ExportResult) String() string {
	return fmt.Sprintf("Exported %d records to %s", r.Records, r.Path)
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session ledger as CSV",
		Long: `Write every record of the open session to a CSV report.

--out may name a file, a directory, or "-" for stdout. For a directory (and
by default, the configured export_dir) the file is named
scan_report_<date>_<unixmillis>.csv.

Examples:
  scanline export
  scanline export --out reports/
  scanline export --out shift.csv
  scanline export --out - > report.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file, directory or - (default: export_dir)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	env, err := openStation(commandContext(cmd), opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	records := env.station.Records()
	reg := env.station.Registry()

	if opts.Out == "-" {
		if err := export.Write(cmd.OutOrStdout(), records, reg); err != nil {
			return WrapExitError(ExitCommandError, "export failed", err)
		}
		return nil
	}

	dest := opts.Out
	if dest == "" {
		dest = env.cfg.ExportDir
	}

	var path string
	if info, statErr := os.Stat(dest); statErr == nil && info.IsDir() {
		path, err = export.WriteFile(dest, records, reg, env.cfg.Now())
	} else {
		path = dest
		err = writeExportFile(path, records, env)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	out := newPrinter(opts.RootOptions, cmd)
	return out.OK(ExportResult{Path: path, Records: len(records)})
}

func writeExportFile(path string, records []ir.ScanRecord, env *stationEnv) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, records, env.station.Registry()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
