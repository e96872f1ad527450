package types

// Version is the canonical project version.
// The CLI, the frame wire format and the record schema share this version.
const Version = "0.3.0"

// RecordSchemaVersion is the version of the persisted transfer record shape.
// It moves in lockstep with Version.
const RecordSchemaVersion = Version

// ContractVersion is the version of the published transfer_completed event.
const ContractVersion = "1.0.0"
