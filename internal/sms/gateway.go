// Package sms abstracts the outbound SMS provider. The core treats the
// provider as an opaque send operation: a hard error means the gateway was
// unreachable and the whole call failed, while a returned status list
// reports per-recipient outcomes and is passed through to the caller.
package sms

import "context"

// StatusOK is the provider code reported for an accepted recipient.
const StatusOK = "Ok"

// SendStatus is the delivery outcome for a single recipient.
type SendStatus struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
	SerialNo string `json:"serial_no,omitempty"`
}

// Accepted reports whether the provider accepted the message for this
// recipient.
func (s SendStatus) Accepted() bool { return s.Code == StatusOK }

// Gateway sends one template message to a list of phone numbers.
//
// A non-nil error indicates a hard failure (unreachable provider, auth
// failure, timeout); no statuses are returned in that case. A nil error
// with a status list may still contain per-recipient failures.
type Gateway interface {
	Send(ctx context.Context, phones []string, templateID string, params []string) ([]SendStatus, error)
}
