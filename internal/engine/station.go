package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/scanline/internal/ir"
	"github.com/roach88/scanline/internal/stage"
)

// Journal persists what the Station commits. Implemented by *store.Store.
//
// Each method must be atomic: on error nothing was written.
type Journal interface {
	AppendRecord(ctx context.Context, rec ir.ScanRecord) error
	SetAssignment(ctx context.Context, stageID ir.StageID, employee string) error
	Reset(ctx context.Context, sessionID string, startedAt time.Time) error
}

// Station is the session context of one scanning station.
//
// It owns the tracker and the ledger and is the only way to mutate them.
// Every operation takes the station lock, so one scan event is fully
// evaluated, persisted and applied before the next is looked at.
//
// Thread-safety model:
//   - Submit, Assign, Reset, SetSession: serialised by mu
//   - SetRegistry: lock-free swap; Submit reads the registry once per event
//   - read accessors: take mu and return copies
//
// INVARIANTS:
//   - a record is in the ledger iff the journal accepted it
//   - tracker state equals replaying the ledger through Tracker.Apply
//   - Reset clears tracker, ledger and journal together or not at all
type Station struct {
	mu sync.Mutex

	registry atomic.Pointer[stage.Registry]

	session     Session
	sessionID   string
	assignments map[ir.StageID]string

	tracker *Tracker
	ledger  *Ledger

	journal Journal
	now     func() time.Time
	ids     SessionIDGenerator
}

// StationOption configures a Station.
type StationOption func(*Station)

// WithJournal persists every commit to j.
func WithJournal(j Journal) StationOption {
	return func(s *Station) {
		s.journal = j
	}
}

// WithTimeSource sets the wall clock used to stamp events that arrive
// without a timestamp. Default: time.Now.
func WithTimeSource(now func() time.Time) StationOption {
	return func(s *Station) {
		s.now = now
	}
}

// WithSessionIDs sets the generator used for the initial session id (when
// none is given) and on every Reset. Default: UUIDv7Generator.
func WithSessionIDs(gen SessionIDGenerator) StationOption {
	return func(s *Station) {
		s.ids = gen
	}
}

// WithSessionID resumes an existing session instead of generating one.
func WithSessionID(id string) StationOption {
	return func(s *Station) {
		s.sessionID = id
	}
}

// WithAssignments seeds the stage/employee assignments.
func WithAssignments(a map[ir.StageID]string) StationOption {
	return func(s *Station) {
		for id, emp := range a {
			if emp = strings.TrimSpace(emp); emp != "" {
				s.assignments[id] = emp
			}
		}
	}
}

// NewStation creates a Station with an empty ledger.
func NewStation(reg *stage.Registry, session Session, opts ...StationOption) *Station {
	s := &Station{
		session:     session,
		assignments: make(map[ir.StageID]string),
		tracker:     NewTracker(),
		ledger:      NewLedger(),
		now:         time.Now,
		ids:         UUIDv7Generator{},
	}
	s.registry.Store(reg)

	for _, opt := range opts {
		opt(s)
	}

	if s.sessionID == "" {
		s.sessionID = s.ids.Generate()
	}
	return s
}

// Submit processes one scan event.
//
// A blank product code is dropped: Submit returns (nil, nil) and nothing is
// recorded. Validation failures are not Go errors; they come back as an
// Outcome with Kind ir.StatusError. A non-nil error means nothing was
// committed (unknown stage, missing registry, or a journal failure).
func (s *Station) Submit(ctx context.Context, ev ScanEvent) (*ir.Outcome, error) {
	ev = ev.Normalize()
	if ev.IsBlank() {
		return nil, nil
	}

	reg := s.registry.Load()
	if reg == nil {
		return nil, &StationError{Code: ErrCodeNoRegistry, Message: "no stage registry loaded"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := reg.Get(ev.StageID)
	if !ok {
		return nil, NewUnknownStageError(ev.StageID, reg.Len())
	}

	ev = ev.ApplyDefaults(def)
	employee := s.assignments[def.ID]
	progress := s.tracker.Get(ev.ProductCode)

	d := Evaluate(ev, s.session, def, progress, employee)
	rec := s.buildRecord(ev, employee, d)

	rec, err := s.ledger.AppendWith(rec, func(r ir.ScanRecord) error {
		if s.journal == nil {
			return nil
		}
		return s.journal.AppendRecord(ctx, r)
	})
	if err != nil {
		slog.Error("scan not committed",
			"product_code", ev.ProductCode,
			"stage_id", int(ev.StageID),
			"error", err,
		)
		return nil, NewPersistError("append record", err)
	}

	s.tracker.Apply(rec.ProductCode, rec.StageID, rec.Status)

	slog.Debug("scan committed",
		"seq", rec.Seq,
		"product_code", rec.ProductCode,
		"stage_id", int(rec.StageID),
		"status", string(rec.Status),
		"reason", string(rec.Reason),
		"progress", s.tracker.Get(rec.ProductCode).String(),
	)

	return &ir.Outcome{Kind: rec.Status, Reason: rec.Reason, Record: rec}, nil
}

func (s *Station) buildRecord(ev ScanEvent, employee string, d Decision) ir.ScanRecord {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	rec := ir.ScanRecord{
		SessionID:         s.sessionID,
		ProductCode:       ev.ProductCode,
		ValidationPattern: strings.Join(s.session.PatternList(), " "),
		ModelName:         s.session.normalizedModel(),
		EmployeeID:        strings.TrimSpace(employee),
		StageID:           ev.StageID,
		Timestamp:         ts,
		Status:            d.Status,
		Reason:            d.Reason,
		Note:              d.Note,
		DefectCode:        ev.DefectCode,
		Shift:             strings.TrimSpace(s.session.Shift),
	}
	if ev.Measurement != "" {
		m := ev.Measurement
		rec.Measurement = &m
	}
	if !ev.Aux.IsZero() {
		aux := ev.Aux
		rec.Aux = &aux
	}
	return rec
}

// Assign sets the employee responsible for a stage. A blank employee
// clears the assignment.
func (s *Station) Assign(ctx context.Context, id ir.StageID, employee string) error {
	employee = strings.TrimSpace(employee)

	reg := s.registry.Load()
	if _, ok := reg.Get(id); !ok {
		return NewUnknownStageError(id, reg.Len())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.SetAssignment(ctx, id, employee); err != nil {
			return NewPersistError("set assignment", err)
		}
	}

	if employee == "" {
		delete(s.assignments, id)
	} else {
		s.assignments[id] = employee
	}
	slog.Info("stage assigned", "stage_id", int(id), "employee_id", employee)
	return nil
}

// Assignment returns the employee assigned to a stage, or "".
func (s *Station) Assignment(id ir.StageID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments[id]
}

// Assignments returns a copy of all assignments.
func (s *Station) Assignments() map[ir.StageID]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[ir.StageID]string, len(s.assignments))
	for k, v := range s.assignments {
		out[k] = v
	}
	return out
}

// Reset ends the current session: ledger, tracker and the journal's session
// rows are cleared together and a new session id is issued. Assignments
// survive a reset. On error nothing changes.
func (s *Station) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.Generate()
	if s.journal != nil {
		if err := s.journal.Reset(ctx, id, s.now()); err != nil {
			return "", NewPersistError("reset session", err)
		}
	}

	dropped := s.ledger.Len()
	s.ledger.reset()
	s.tracker.reset()
	prev := s.sessionID
	s.sessionID = id

	slog.Info("session reset",
		"previous_session_id", prev,
		"session_id", id,
		"records_dropped", dropped,
	)
	return id, nil
}

// SetRegistry swaps in a reloaded stage registry. Takes effect from the
// next event; an event already being evaluated keeps the registry it read.
func (s *Station) SetRegistry(reg *stage.Registry) {
	s.registry.Store(reg)
}

// Registry returns the current stage registry.
func (s *Station) Registry() *stage.Registry {
	return s.registry.Load()
}

// SetSession replaces the model name, patterns, shift and operator.
func (s *Station) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Session returns the current session settings.
func (s *Station) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SessionID returns the id of the current session.
func (s *Station) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Records returns a copy of the ledger.
func (s *Station) Records() []ir.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Records()
}

// Progress returns the progress of one unit.
func (s *Station) Progress(code string) ir.UnitProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Get(strings.TrimSpace(code))
}

// ProgressSnapshot returns a copy of every unit's progress.
func (s *Station) ProgressSnapshot() map[string]ir.UnitProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

// Stats derives the counters for the active stage from the ledger.
func (s *Station) Stats(active ir.StageID) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Aggregate(s.ledger.records, active)
}

// StatsAll derives counters for every registered stage.
func (s *Station) StatsAll() []Stats {
	n := s.registry.Load().Len()

	s.mu.Lock()
	defer s.mu.Unlock()
	return AggregateAll(s.ledger.records, n)
}
