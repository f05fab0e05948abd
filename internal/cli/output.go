package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit statuses.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected scan, failed scenario, replay divergence
	ExitCommandError = 2 // bad flags, unreadable stage file, unopenable ledger
)

// Problem codes reported in Envelope.Error.
const (
	CodeUnknownStage     = "E_UNKNOWN_STAGE"
	CodeDirective        = "E_DIRECTIVE"
	CodeInvalidStages    = "E_INVALID_STAGES"
	CodeTestFailed       = "E_TEST_FAILED"
	CodeNondeterministic = "E_NONDETERMINISTIC"
)

// ExitError ends a command with a specific exit status.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process exit status. Errors that
// carry no ExitError are treated as failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// Envelope wraps every JSON result.
type Envelope struct {
	Status string   `json:"status"` // "ok" or "error"
	Data   any      `json:"data,omitempty"`
	Error  *Problem `json:"error,omitempty"`
}

// Problem describes why a command or scan was refused.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Printer writes command results as text or as JSON envelopes. In JSON
// mode every call writes exactly one line, so a scan session reads as a
// stream of newline-delimited envelopes.
type Printer struct {
	Format  string
	Out     io.Writer
	Diag    io.Writer // verbose diagnostics; Out when nil
	Verbose bool
}

// newPrinter builds the Printer for cmd from the global flags.
func newPrinter(opts *RootOptions, cmd *cobra.Command) *Printer {
	return &Printer{
		Format:  opts.Format,
		Out:     cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	}
}

// JSON reports whether the printer emits envelopes.
func (p *Printer) JSON() bool { return p.Format == "json" }

// OK prints a successful result. Text mode prints data with %v, so
// results with a String method control their own rendering.
func (p *Printer) OK(data any) error {
	if p.JSON() {
		return p.envelope(Envelope{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(p.Out, data)
	return err
}

// Fail prints a refusal. Details are shown in text mode only when verbose.
func (p *Printer) Fail(code, message string, details any) error {
	if p.JSON() {
		return p.envelope(Envelope{
			Status: "error",
			Error:  &Problem{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(p.Out, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if p.Verbose && details != nil {
		_, err := fmt.Fprintf(p.Out, "Details: %v\n", details)
		return err
	}
	return nil
}

// Report prints data in a single envelope that is an error when problem
// is set. It is only meaningful in JSON mode.
func (p *Printer) Report(data any, problem *Problem) error {
	env := Envelope{Status: "ok", Data: data, Error: problem}
	if problem != nil {
		env.Status = "error"
	}
	return p.envelope(env)
}

// Debugf prints a diagnostic line when verbose. Diagnostics never go to
// Out in JSON mode unless no Diag writer is set.
func (p *Printer) Debugf(format string, args ...any) {
	if !p.Verbose {
		return
	}
	w := p.Diag
	if w == nil {
		w = p.Out
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (p *Printer) envelope(env Envelope) error {
	return json.NewEncoder(p.Out).Encode(env)
}
