// Package handlers defines HTTP-layer error codes used across all API
// endpoints. These symbolic constants are mapped to HTTP responses via the
// fail() helper and give clients a stable, machine-readable taxonomy that
// supplements the human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics; domain codes
//     (invalid_phone, code_expired, …) carry the verification-specific
//     outcomes a status alone cannot convey.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "code_expired",
//	  "message": "verification code expired"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidPhone     = "invalid_phone"
	ErrCodeTooFrequent      = "too_frequent"
	ErrCodeNoCodeIssued     = "no_code_issued"
	ErrCodeCodeExpired      = "code_expired"
	ErrCodeCodeMismatch     = "code_mismatch"
	ErrCodeCapacityExceeded = "capacity_exceeded"
	ErrCodeUpstreamFailure  = "upstream_failure"
	ErrCodeNoRecipients     = "no_recipients"
)
