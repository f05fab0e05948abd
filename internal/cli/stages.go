package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// StagesOptions holds flags for the stages subcommands.
type StagesOptions struct {
	*RootOptions
	YAML bool
}

// StageView is the JSON/text form of one stage definition.
type StageView struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Measurement string   `json:"measurement,omitempty"`
	Standard    string   `json:"standard,omitempty"`
	Aux         []string `json:"aux,omitempty"`
}

type stageList []StageView

func (l stageList) String() string {
	var b strings.Builder
	for _, s := range l {
		fmt.Fprintf(&b, "%d %s", s.ID, s.Name)
		if s.Measurement != "" {
			fmt.Fprintf(&b, "  measure %s", s.Measurement)
			if s.Standard != "" {
				fmt.Fprintf(&b, " (%s)", s.Standard)
			}
		}
		if len(s.Aux) > 0 {
			fmt.Fprintf(&b, "  aux %s", strings.Join(s.Aux, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func newStageList(reg *stage.Registry) stageList {
	list := make(stageList, 0, reg.Len())
	for _, def := range reg.Stages() {
		v := StageView{ID: int(def.ID), Name: def.Name}
		if def.MeasurementRequired {
			v.Measurement = def.MeasurementLabel
			if v.Measurement == "" {
				v.Measurement = "measurement"
			}
			v.Standard = standardText(def.Standard)
		}
		for _, f := range def.Aux {
			if !f.Active() {
				continue
			}
			label := f.Label
			if f.HasDefault {
				label += "=" + f.Default
			}
			v.Aux = append(v.Aux, label)
		}
		list = append(list, v)
	}
	return list
}

func standardText(s ir.Standard) string {
	switch s.Kind {
	case ir.StandardNumeric:
		return "< " + s.String()
	case ir.StandardExact:
		return "= " + s.String()
	}
	return ""
}

// NewStagesCommand creates the stages command group.
func NewStagesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StagesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Inspect and validate the stage file",
	}

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a CUE stage file",
		Long: `Check a stage file against the stage schema: at least one stage, every
name non-blank, at most 8 auxiliary fields per stage.

Exit codes:
  0 - Stage file is valid
  1 - Validation failed
  2 - Command error (file not found, etc.)

Examples:
  scanline stages validate stages.cue`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStagesValidate(opts, args, cmd)
		},
	}

	list := &cobra.Command{
		Use:   "list [file]",
		Short: "List stage definitions",
		Long: `Print the stages in order. --yaml writes the normalised registry as YAML.

Examples:
  scanline stages list
  scanline stages list stages.cue --yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStagesList(opts, args, cmd)
		},
	}
	list.Flags().BoolVar(&opts.YAML, "yaml", false, "write YAML instead of a table")

	cmd.AddCommand(validate, list)
	return cmd
}

// stagesPath resolves the file argument, falling back to the config.
func stagesPath(opts *StagesOptions, args []string, cmd *cobra.Command) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return "", err
	}
	return cfg.Stages, nil
}

func runStagesValidate(opts *StagesOptions, args []string, cmd *cobra.Command) error {
	path, err := stagesPath(opts, args, cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "stage file not found", err)
	}

	out := newPrinter(opts.RootOptions, cmd)

	reg, err := stage.Load(path)
	if err != nil {
		if ferr := out.Fail(CodeInvalidStages, err.Error(), map[string]string{"file": path}); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "stage file invalid", err)
	}

	if opts.Format == "json" {
		return out.OK(map[string]any{"file": path, "stages": reg.Len()})
	}
	return out.OK(fmt.Sprintf("✓ %s: %d stages", path, reg.Len()))
}

func runStagesList(opts *StagesOptions, args []string, cmd *cobra.Command) error {
	path, err := stagesPath(opts, args, cmd)
	if err != nil {
		return err
	}

	reg, err := stage.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load stages", err)
	}

	if opts.YAML {
		return stage.EncodeYAML(cmd.OutOrStdout(), reg)
	}

	out := newPrinter(opts.RootOptions, cmd)
	return out.OK(newStageList(reg))
}
