// Package store is the durable side of a scanning station: one SQLite file
// holding the station's sessions, the ledger of the open session and the
// stage assignments, which outlive resets.
//
// Unit progress is not stored. engine.Restore rebuilds it by replaying the
// ledger, so the ledger stays the only source of truth.
//
// Records are read back in seq order, and UNIQUE(session_id, seq) makes a
// second writer with the same number fail instead of forking the ledger.
// Reset clears the ledger, closes the session and opens the next one in
// one transaction.
//
// Connections run in WAL mode with synchronous=NORMAL, a five second busy
// timeout and foreign keys enforced. Older ledger files are upgraded in
// place on Open; PRAGMA user_version records how far.
package store
