package ir

// Version constants for the persisted formats.
const (
	// SnapshotVersion is the version of the golden tree snapshot format.
	SnapshotVersion = "1"

	// EngineVersion is the treemngr engine version.
	EngineVersion = "0.1.0"
)
