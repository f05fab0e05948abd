package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	eventFlags
	Watch bool
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read scans from stdin",
		Long: `Read scanned codes from stdin, one per line, and validate each one.

A keyboard-wedge scanner types the code followed by Enter, so the command
can be left running at the station. Lines starting with ':' are directives:

  :stage N        switch the active stage
  :measure V      measurement for the next scan only
  :defect CODE    declare a defect on the next scan only
  :aux N=V        set auxiliary slot N (kept until changed; N= clears)
  :assign EMP     assign EMP to the active stage (blank clears)
  :stats          counters for the active stage
  :quit           stop

--measure and --defect given as flags apply to every scan. The stage file
is watched and reloaded on change unless --watch=false.

Examples:
  scanline scan --stage 1
  scanline scan --stage 2 --measure 9.5 < codes.txt
  scanline scan --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd)
		},
	}
	opts.eventFlags.register(cmd)
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the stage file when it changes")

	return cmd
}

// scanLoop is the state of an interactive scanning session.
type scanLoop struct {
	station *engine.Station
	out     *Printer
	base    engine.ScanEvent // flag values, applied to every scan
	stage   ir.StageID
	aux     ir.AuxValues
	measure *string // one-shot override
	defect  *string // one-shot override
	scanned int
}

func runScan(opts *ScanOptions, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	base, err := opts.event("")
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid scan input", err)
	}

	env, err := openStation(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.Watch {
		done, err := watchStages(ctx, env)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch stages", err)
		}
		defer func() {
			cancel()
			<-done
		}()
	}

	loop := &scanLoop{
		station: env.station,
		out:     newPrinter(opts.RootOptions, cmd),
		base:    base,
		stage:   base.StageID,
		aux:     base.Aux,
	}

	if !loop.out.JSON() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: session %s, model %s, stage %d (%s). Ready.\n",
			env.store.Station(), env.station.SessionID(), env.cfg.Model, loop.stage, env.registry.Name(loop.stage))
	}

	if err := loop.run(ctx, cmd.InOrStdin()); err != nil {
		return err
	}
	loop.out.Debugf("%d scans processed", loop.scanned)
	return nil
}

// watchStages reloads the registry into the station on change. The
// returned channel closes once the watcher has stopped.
func watchStages(ctx context.Context, env *stationEnv) (<-chan struct{}, error) {
	w, err := stage.NewWatcher(env.cfg.Stages, func(reg *stage.Registry) {
		env.station.SetRegistry(reg)
		slog.Info("stages reloaded", "path", env.cfg.Stages, "count", reg.Len())
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("stage watcher stopped", "error", err)
		}
	}()
	return done, nil
}

// run reads lines until EOF, :quit or cancellation.
func (l *scanLoop) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to read input", err)
					}
				default:
				}
				return nil
			}
			quit, err := l.handle(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// handle processes one input line. It returns true on :quit.
func (l *scanLoop) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return l.directive(ctx, line)
	}
	if line == "" {
		return false, nil
	}

	ev := l.base
	ev.ProductCode = line
	ev.StageID = l.stage
	ev.Aux = l.aux
	if l.measure != nil {
		ev.Measurement = *l.measure
	}
	if l.defect != nil {
		ev.DefectCode = *l.defect
	}
	l.measure, l.defect = nil, nil

	outcome, err := l.station.Submit(ctx, ev)
	if err != nil {
		if engine.IsUnknownStage(err) {
			return false, l.out.Fail(CodeUnknownStage, err.Error(), nil)
		}
		return false, WrapExitError(ExitCommandError, "scan not recorded", err)
	}
	if outcome == nil {
		return false, nil
	}
	l.scanned++

	return false, l.out.OK(newOutcomeView(outcome, l.station.Progress(outcome.Record.ProductCode)))
}

func (l *scanLoop) directive(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "q", "quit", "exit":
		return true, nil

	case "stage":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, l.out.Fail(CodeDirective, fmt.Sprintf("stage %q is not a number", arg), nil)
		}
		id := ir.StageID(n)
		reg := l.station.Registry()
		if _, ok := reg.Get(id); !ok {
			return false, l.out.Fail(CodeUnknownStage, fmt.Sprintf("stage %d is not defined (1..%d)", n, reg.Len()), nil)
		}
		l.stage = id
		return false, l.out.OK(fmt.Sprintf("stage %d: %s", n, reg.Name(id)))

	case "measure":
		l.measure = &arg
		return false, nil

	case "defect":
		l.defect = &arg
		return false, nil

	case "aux":
		slot, value, err := parseAux(arg)
		if err != nil {
			return false, l.out.Fail(CodeDirective, err.Error(), nil)
		}
		l.aux[slot-1] = value
		return false, nil

	case "assign":
		if err := l.station.Assign(ctx, l.stage, arg); err != nil {
			return false, WrapExitError(ExitCommandError, "assignment failed", err)
		}
		return false, l.out.OK(fmt.Sprintf("stage %d assigned to %q", l.stage, arg))

	case "stats":
		return false, l.out.OK(statsView(l.station.Stats(l.stage)))

	default:
		return false, l.out.Fail(CodeDirective, fmt.Sprintf("unknown directive :%s", name), nil)
	}
}
