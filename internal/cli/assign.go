package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/ir"
)

// AssignmentView is one stage/employee pair.
type AssignmentView struct {
	Stage    int    `json:"stage_id"`
	Name     string `json:"name"`
	Employee string `json:"employee_id"`
}

// assignmentList renders as one line per stage.
type assignmentList []AssignmentView

func (l assignmentList) String() string {
	var b strings.Builder
	for _, a := range l {
		emp := a.Employee
		if emp == "" {
			emp = "(unassigned)"
		}
		fmt.Fprintf(&b, "%d %-20s %s\n", a.Stage, a.Name, emp)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewAssignCommand creates the assign command.
func NewAssignCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign [<stage> <employee>]",
		Short: "Assign an employee to a stage",
		Long: `Set the employee responsible for a stage. Scans at a stage without an
employee are rejected. An empty employee clears the assignment. Without
arguments, the current assignments are listed.

Examples:
  scanline assign 1 EMP-01
  scanline assign 1 ""
  scanline assign`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runAssign(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	env, err := openStation(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if len(args) == 2 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("stage %q is not a number", args[0]))
		}
		if err := env.station.Assign(ctx, ir.StageID(n), args[1]); err != nil {
			return WrapExitError(ExitCommandError, "assignment failed", err)
		}
	}

	current := env.station.Assignments()
	list := make(assignmentList, 0, env.registry.Len())
	for _, def := range env.registry.Stages() {
		list = append(list, AssignmentView{
			Stage:    int(def.ID),
			Name:     def.Name,
			Employee: current[def.ID],
		})
	}

	out := newPrinter(opts, cmd)
	return out.OK(list)
}
