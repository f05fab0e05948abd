package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scanline/internal/engine"
	"github.com/roach88/scanline/internal/ir"
)

// eventFlags are the per-scan inputs shared by `scan` and `record`.
type eventFlags struct {
	Stage   int
	Measure string
	Defect  string
	Aux     []string // "N=value", N in 1..8
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Stage, "stage", 1, "active stage id")
	cmd.Flags().StringVar(&f.Measure, "measure", "", "measurement value")
	cmd.Flags().StringVar(&f.Defect, "defect", "", "declare a defect with this code")
	cmd.Flags().StringArrayVar(&f.Aux, "aux", nil, "auxiliary value as N=value (repeatable)")
}

// event builds a ScanEvent for code from the flags.
func (f *eventFlags) event(code string) (engine.ScanEvent, error) {
	ev := engine.ScanEvent{
		ProductCode: code,
		StageID:     ir.StageID(f.Stage),
		DefectCode:  f.Defect,
		Measurement: f.Measure,
	}
	for _, raw := range f.Aux {
		slot, value, err := parseAux(raw)
		if err != nil {
			return ev, err
		}
		ev.Aux[slot-1] = value
	}
	return ev, nil
}

// parseAux parses "N=value" with N a 1-based aux slot.
func parseAux(raw string) (int, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return 0, "", fmt.Errorf("aux %q: want N=value", raw)
	}
	slot, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || slot < 1 || slot > ir.MaxAuxFields {
		return 0, "", fmt.Errorf("aux %q: slot must be 1..%d", raw, ir.MaxAuxFields)
	}
	return slot, value, nil
}

// outcomeView is the JSON shape of one processed scan.
type outcomeView struct {
	Seq      int64  `json:"seq"`
	Code     string `json:"product_code"`
	Stage    int    `json:"stage_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Note     string `json:"note"`
	Message  string `json:"message"`
	Progress string `json:"progress"`
}

func newOutcomeView(o *ir.Outcome, progress ir.UnitProgress) outcomeView {
	return outcomeView{
		Seq:      o.Record.Seq,
		Code:     o.Record.ProductCode,
		Stage:    int(o.Record.StageID),
		Status:   string(o.Kind),
		Reason:   string(o.Reason),
		Note:     o.Record.Note,
		Message:  o.Message(),
		Progress: progress.String(),
	}
}

// String is the one-line operator feedback for text output.
func (v outcomeView) String() string {
	mark := "✓"
	switch ir.Status(v.Status) {
	case ir.StatusDefect:
		mark = "!"
	case ir.StatusError:
		mark = "✗"
	}
	if v.Reason != "" {
		return fmt.Sprintf("%s #%d %s [%s]", mark, v.Seq, v.Message, v.Reason)
	}
	return fmt.Sprintf("%s #%d %s", mark, v.Seq, v.Message)
}
