package ir

// Version constants for the record schema and engine.
const (
	// RecordVersion is the ScanRecord schema version. Bump when the
	// canonical form of a record changes.
	RecordVersion = "1"

	// EngineVersion is the scanline engine version.
	EngineVersion = "0.3.0"
)
