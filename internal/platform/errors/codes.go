package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Container errors
	CodeContainerUnreadable          Code = "CONTAINER_UNREADABLE"
	CodeContainerVersionUnsupported  Code = "CONTAINER_VERSION_UNSUPPORTED"
	CodeContainerCountMismatch       Code = "CONTAINER_COUNT_MISMATCH"
	CodeContainerMissingInitialState Code = "CONTAINER_MISSING_INITIAL_STATE"

	// Journal errors
	CodeJournalFrameOrder  Code = "JOURNAL_FRAME_ORDER"
	CodeJournalTypeUnknown Code = "JOURNAL_EVENT_TYPE_UNKNOWN"

	// Checkpoint errors
	CodeCheckpointFrameOrder Code = "CHECKPOINT_FRAME_ORDER"

	// Continuation errors
	CodeContinuationNotLoaded     Code = "CONTINUATION_NOT_LOADED"
	CodeContinuationFrameInFuture Code = "CONTINUATION_FRAME_IN_FUTURE"

	// Publisher errors
	CodeSubscriberRequired Code = "SUBSCRIBER_REQUIRED"
	CodeSubscriberNotFound Code = "SUBSCRIBER_NOT_FOUND"

	// Generator errors
	CodeGeneratorCallNotFound Code = "GENERATOR_CALL_NOT_FOUND"

	// Scenario errors
	CodeScenarioInvalid     Code = "SCENARIO_INVALID"
	CodeScenarioDanglingRef Code = "SCENARIO_DANGLING_REFERENCE"

	// World state errors
	CodeStateDanglingRef Code = "STATE_DANGLING_REFERENCE"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)
