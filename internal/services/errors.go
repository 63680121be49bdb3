// Package services defines the business logic for phone verification,
// canteen phone bindings, and throttled order notifications. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Verification-related errors.
var (
	// ErrInvalidPhone is returned when a phone number does not match the
	// supported mobile-number format.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrRateLimited is returned when a phone has exhausted its daily
	// verification-code budget.
	ErrRateLimited = errors.New("daily send limit reached")

	// ErrTooFrequent is returned when a code is requested again before the
	// resend cooldown has elapsed.
	ErrTooFrequent = errors.New("code requested too frequently")

	// ErrNoCodeIssued is returned when a confirmation arrives for a phone
	// that has no live verification record.
	ErrNoCodeIssued = errors.New("no code issued for this phone")

	// ErrCodeExpired is returned when the submitted code is past its
	// validity window, regardless of whether the text matches.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrCodeMismatch is returned when the submitted code differs from the
	// one on record.
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// Binding-related errors.
var (
	// ErrPhoneLimitExceeded is returned when a canteen already holds the
	// maximum number of bound phones.
	ErrPhoneLimitExceeded = errors.New("phone binding limit reached")

	// ErrAlreadyBound is returned when the exact (canteen, phone) pair is
	// already bound.
	ErrAlreadyBound = errors.New("phone already bound to this canteen")
)

// Notification-related errors.
var (
	// ErrNoEligibleRecipients is returned when, after throttling and
	// phone resolution, there is nobody left to notify.
	ErrNoEligibleRecipients = errors.New("no eligible recipients")

	// ErrGatewayFailure is returned when the SMS provider could not be
	// reached or rejected the whole request. Already-committed state is
	// not rolled back when this happens.
	ErrGatewayFailure = errors.New("sms gateway failure")
)
