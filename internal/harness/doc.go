// Package harness runs scan scenarios against a real Station.
//
// A scenario fixes a stage layout, an operator session and a sequence of
// scans, and states the outcome and unit progress each scan must produce.
// The harness submits every scan through engine.Station with an in-memory
// SQLite journal, so the whole commit path is exercised: evaluation,
// tracker side effects, ledger sequencing and persistence.
//
// # Scenario Format
//
//	name: defect_gate
//	description: "A defect blocks the unit until it is re-verified"
//	stages:
//	  - name: Assembly
//	  - name: Voltage test
//	    measurement: { label: Voltage, standard: "10" }
//	  - name: Packing
//	session: { model: X100, patterns: "ABC DEF" }
//	assignments: { 1: EMP-01, 2: EMP-02, 3: EMP-03 }
//	steps:
//	  - code: ABC123
//	    stage: 1
//	    expect: { status: valid, progress: { highest: 1, pending: false } }
//	  - code: ABC123
//	    stage: 2
//	    defect: NG01
//	    expect: { status: defect, progress: { highest: 1, pending: true } }
//	  - assign: { stage: 3, employee: EMP-09 }
//	  - reset: true
//	assertions:
//	  - type: stats
//	    stage: 1
//	    success: 1
//
// stages_file may name a CUE stage registry instead of inline stages.
// Aux values are given as a map of 1-based slot to value.
//
// # Assertion Types
//
//   - progress: final progress of a code (or untouched: true)
//   - stats: per-stage counters over the final ledger
//   - ledger_count: number of records in the final session
//   - reason_count, status_count: records with a given reason or status
//
// # Deterministic Testing
//
// Timestamps come from testutil.StepClock (one second per tick from
// testutil.DefaultBase) and session ids from
// testutil.SequentialSessionGenerator, so two runs of a scenario produce
// byte-identical ledgers. RunWithGolden snapshots the trace (every
// committed record across resets) and final progress as canonical JSON.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/defect_gate.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
