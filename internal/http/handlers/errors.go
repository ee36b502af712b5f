// Package handlers defines the HTTP-layer error codes used across the local
// canvassing API.
//
// Codes are lowercase snake_case. Generic codes mirror common HTTP status
// semantics; domain-specific codes carry distinctions a bare status cannot,
// such as a roster rejected for belonging to a different output area versus
// a roster that simply could not be fetched.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeMissingToken       = "missing_token"
	ErrCodeSessionRejected    = "session_rejected"
	ErrCodeScopeMissing       = "scope_missing"
	ErrCodeNoSession          = "no_session"
	ErrCodeScopeMismatch      = "scope_mismatch"
	ErrCodeRosterUnavailable  = "roster_unavailable"
	ErrCodeRosterNotLoaded    = "roster_not_loaded"
	ErrCodeMetadataIncomplete = "metadata_incomplete"
	ErrCodeUnknownAddress     = "unknown_address"
	ErrCodeInvalidOption      = "invalid_option"
	ErrCodeWizardState        = "wizard_state"
	ErrCodeRetryRunning       = "retry_running"
	ErrCodeSendFailed         = "send_failed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
