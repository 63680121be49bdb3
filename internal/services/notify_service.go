// Package services – NotifyService
//
// This file implements batch order notifications to canteens with a
// per-canteen cooldown. Each canteen's eligibility check and timestamp
// advance happen in one conditional UPDATE, so two concurrent batches can
// never both notify the same canteen inside one cooldown window.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xmuorder/go-sms-backend/internal/repo"
	"github.com/xmuorder/go-sms-backend/internal/sms"
)

// NotifyResult reports the outcome of a batch notification: which canteens
// were notified, which the throttle skipped, and the gateway's
// per-recipient delivery statuses.
type NotifyResult struct {
	Notified []string         `json:"notified"`
	Skipped  []string         `json:"skipped"`
	Statuses []sms.SendStatus `json:"statuses"`
}

// NotifyService implements the throttled canteen-notification use-case.
type NotifyService struct {
	// DB is the database handle holding canteen throttle state.
	DB *gorm.DB

	// Gateway performs the multi-recipient send.
	Gateway sms.Gateway

	// NoticeTemplateID is the provider template for order notices; its
	// parameters are the two pickup-time hints forwarded by the caller.
	NoticeTemplateID string

	// Cooldown is the minimum gap between two notices to one canteen.
	Cooldown time.Duration

	// Now returns the current time; overridable in tests. Nil means
	// time.Now.
	Now func() time.Time
}

func (s *NotifyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NotifyCanteens sends an order notice to every canteen in ids whose
// cooldown window has elapsed.
//
// Semantics:
//   - Duplicate IDs are collapsed; order of the input is preserved.
//   - A canteen inside its cooldown window is silently skipped, not an
//     error; it is reported in the result's Skipped list.
//   - After throttling, the eligible canteens are resolved to their bound
//     phones. An empty phone set fails with ErrNoEligibleRecipients.
//   - A hard gateway failure aborts the call with ErrGatewayFailure; the
//     claimed cooldown slots are not released. Per-recipient failures are
//     passed through in the result's status list.
func (s *NotifyService) NotifyCanteens(ctx context.Context, ids []string, time1, time2 string) (*NotifyResult, error) {
	now := s.now()
	res := &NotifyResult{
		Notified: []string{},
		Skipped:  []string{},
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		claimed, err := repo.ClaimNotifySlot(ctx, s.DB, id, now, s.Cooldown)
		if err != nil {
			return nil, err
		}
		if claimed {
			res.Notified = append(res.Notified, id)
		} else {
			res.Skipped = append(res.Skipped, id)
		}
	}

	phones, err := repo.ListBoundPhones(ctx, s.DB, res.Notified)
	if err != nil {
		return nil, err
	}
	if len(phones) == 0 {
		return res, ErrNoEligibleRecipients
	}

	statuses, err := s.Gateway.Send(ctx, phones, s.NoticeTemplateID, []string{time1, time2})
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	res.Statuses = statuses
	return res, nil
}

var _ CodeConfirmer = (*VerificationService)(nil)
