package errors

// Error codes for standardized error responses.
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Resource errors
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeUnknownEntry    = "unknown_entry"
	ErrCodeUnknownGroup    = "unknown_group"

	// Engine errors
	ErrCodeShuffleDisabled = "shuffle_disabled"
	ErrCodeNotDistractor   = "not_distractor"
	ErrCodeEntryLocked     = "entry_locked"
	ErrCodeEmptyPool       = "empty_pool"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
