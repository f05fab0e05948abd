package engine

import (
	"sort"

	"github.com/roach88/scanline/internal/ir"
)

// Tracker is the UnitProgressTracker: product code -> ir.UnitProgress.
//
// Apply is the only mutation path besides reset, which is reserved for
// the Station so that tracker and ledger always clear together.
//
// INVARIANTS:
//   - HighestStagePassed never decreases
//   - only a valid outcome raises HighestStagePassed or clears DefectPending
//   - an error outcome changes nothing
//
// Tracker is not safe for concurrent use; the Station serialises access.
type Tracker struct {
	units map[string]ir.UnitProgress
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{units: make(map[string]ir.UnitProgress)}
}

// Get returns the progress of code, or the zero value if never seen.
func (t *Tracker) Get(code string) ir.UnitProgress {
	return t.units[code]
}

// Apply performs the side effects of an outcome for code at stageID.
func (t *Tracker) Apply(code string, stageID ir.StageID, status ir.Status) {
	switch status {
	case ir.StatusValid:
		p := t.units[code]
		if int(stageID) > p.HighestStagePassed {
			p.HighestStagePassed = int(stageID)
		}
		p.DefectPending = false
		t.units[code] = p

	case ir.StatusDefect:
		p := t.units[code]
		p.DefectPending = true
		t.units[code] = p
	}
}

// Len returns the number of units seen by a valid or defect outcome.
func (t *Tracker) Len() int {
	return len(t.units)
}

// Snapshot returns a copy of the whole map.
func (t *Tracker) Snapshot() map[string]ir.UnitProgress {
	out := make(map[string]ir.UnitProgress, len(t.units))
	for k, v := range t.units {
		out[k] = v
	}
	return out
}

// Codes returns the tracked product codes in sorted order.
func (t *Tracker) Codes() []string {
	codes := make([]string, 0, len(t.units))
	for k := range t.units {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// reset clears all progress. Called only by Station.Reset.
func (t *Tracker) reset() {
	t.units = make(map[string]ir.UnitProgress)
}
