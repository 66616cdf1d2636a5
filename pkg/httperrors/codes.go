package httperrors

// Error codes for standardized error responses. The same codes are used
// on the REST surface and inside WebSocket error payloads so clients can
// switch on one vocabulary.
const (
	// Validation errors
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidPayload       = "invalid_payload"
	ErrCodeInvalidQuestionIndex = "invalid_question_index"
	ErrCodeInvalidChoiceIndex   = "invalid_choice_index"

	// Authorization errors
	ErrCodeInvalidToken  = "invalid_token"
	ErrCodeNotAuthorized = "not_authorized"

	// Precondition errors
	ErrCodeNoActiveQuestion = "no_active_question"
	ErrCodeNotAccepting     = "not_accepting_answers"
	ErrCodeAlreadyBound     = "already_bound"
	ErrCodeNotBound         = "not_bound"

	// WebSocket errors
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternalError    = "internal_error"
)
