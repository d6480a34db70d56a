package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidUserID  = "invalid_user_id"
	ErrCodeMissingField   = "missing_field"

	// Quiz errors
	ErrCodeParseEmpty         = "parse_empty"
	ErrCodeNoActiveSession    = "no_active_session"
	ErrCodeUnrecognizedAction = "unrecognized_action"
	ErrCodeQuestionPending    = "question_pending"
	ErrCodeSourceUnavailable  = "question_source_unavailable"

	// Results errors
	ErrCodeResultsFetchFailed = "results_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
