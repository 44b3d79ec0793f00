package audithook

// Action constants for audit events.
const (
	// Entry actions
	ActionEntryCreated      = "entry.created"
	ActionEntryUpdated      = "entry.updated"
	ActionEntryDeleted      = "entry.deleted"
	ActionEntryAccessDenied = "entry.access_denied"

	// Sequence actions
	ActionSequenceExhausted = "sequence.exhausted"
)

// Resource constants for audit events.
const (
	ResourceEntry    = "entry"
	ResourceSequence = "sequence"
)

// Category constants for audit events.
const (
	CategoryLedger = "ledger"
	CategoryAccess = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
