// Package handlers provides HTTP handler implementations for the public API.
// Handlers are transport-thin: they validate input, delegate to application
// services, and translate service errors into HTTP results.
package handlers

import (
	"context"

	"github.com/xmuorder/go-sms-backend/internal/domain"
	"github.com/xmuorder/go-sms-backend/internal/services"
	"github.com/xmuorder/go-sms-backend/internal/sms"
)

// VerificationIssuer is the slice of VerificationService the HTTP layer
// needs. Narrow interfaces keep handlers testable with fakes.
type VerificationIssuer interface {
	Issue(ctx context.Context, phone string) (*domain.VerificationRecord, []sms.SendStatus, error)
}

// PhoneBinder covers bind, unbind, and listing of canteen phones.
type PhoneBinder interface {
	Bind(ctx context.Context, canteenID, canteenName, phone, code string) error
	Unbind(ctx context.Context, canteenID, phone string) error
	ListPhones(ctx context.Context, canteenID string) ([]string, error)
}

// CanteenNotifier sends throttled batch notices.
type CanteenNotifier interface {
	NotifyCanteens(ctx context.Context, ids []string, time1, time2 string) (*services.NotifyResult, error)
}

// Handlers bundles the service dependencies for all endpoints.
type Handlers struct {
	verSvc    VerificationIssuer
	bindSvc   PhoneBinder
	notifySvc CanteenNotifier
}

// New constructs the handler set from its service dependencies.
func New(verSvc VerificationIssuer, bindSvc PhoneBinder, notifySvc CanteenNotifier) *Handlers {
	return &Handlers{verSvc: verSvc, bindSvc: bindSvc, notifySvc: notifySvc}
}
