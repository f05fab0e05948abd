package engine

import "github.com/roach88/scanline/internal/ir"

// Stats are the counters shown for the active stage.
//
// Success and Defect count records at the active stage; Error counts every
// rejected record regardless of stage.
type Stats struct {
	Stage   ir.StageID `json:"stage"`
	Success int        `json:"success"`
	Defect  int        `json:"defect"`
	Error   int        `json:"error"`
}

// Total returns the number of records that contributed to s.
func (s Stats) Total() int {
	return s.Success + s.Defect + s.Error
}

// Aggregate derives Stats from the ledger. Nothing is cached: the counters
// are always a function of records alone.
func Aggregate(records []ir.ScanRecord, active ir.StageID) Stats {
	s := Stats{Stage: active}
	for _, rec := range records {
		switch rec.Status {
		case ir.StatusError:
			s.Error++
		case ir.StatusValid:
			if rec.StageID == active {
				s.Success++
			}
		case ir.StatusDefect:
			if rec.StageID == active {
				s.Defect++
			}
		}
	}
	return s
}

// AggregateAll returns Stats for every stage id in 1..n, in order.
func AggregateAll(records []ir.ScanRecord, n int) []Stats {
	out := make([]Stats, n)
	for i := range out {
		out[i].Stage = ir.StageID(i + 1)
	}

	errs := 0
	for _, rec := range records {
		if rec.Status == ir.StatusError {
			errs++
			continue
		}
		idx := int(rec.StageID) - 1
		if idx < 0 || idx >= n {
			continue
		}
		switch rec.Status {
		case ir.StatusValid:
			out[idx].Success++
		case ir.StatusDefect:
			out[idx].Defect++
		}
	}

	for i := range out {
		out[i].Error = errs
	}
	return out
}
