// Package services – VerificationService
//
// This file implements the issuance and confirmation of SMS verification
// codes. Issuance is rate limited two ways: a per-day budget charged on
// every send, and a short resend cooldown between consecutive sends to the
// same phone. Both limits are enforced inside a single conditional UPDATE
// so concurrent requests for one phone cannot both pass a stale check.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/xmuorder/go-sms-backend/internal/domain"
	"github.com/xmuorder/go-sms-backend/internal/repo"
	"github.com/xmuorder/go-sms-backend/internal/sms"
)

// VerificationService implements the verification-code lifecycle: issue,
// confirm, and the periodic sweep of expired records.
//
// Delivery policy: the rate-limit charge is committed before the gateway
// send. A failed send therefore does NOT refund the budget; a lost
// notification is tolerated rather than an inconsistently charged limit.
type VerificationService struct {
	// DB is the database handle used for all verification state.
	DB *gorm.DB

	// Gateway delivers the code; treated as opaque.
	Gateway sms.Gateway

	// CodeTemplateID is the provider template for verification codes.
	// Its parameters are the code itself and the validity in minutes.
	CodeTemplateID string

	// CodeTTL is how long an issued code stays confirmable.
	CodeTTL time.Duration

	// ResendCooldown is the minimum gap between two sends to one phone.
	ResendCooldown time.Duration

	// MaxSendsPerDay is the issuance budget charged per send. The budget
	// resets when the sweep deletes the expired record.
	MaxSendsPerDay int

	// Now returns the current time; overridable in tests. Nil means
	// time.Now.
	Now func() time.Time
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// newCode generates a 6-digit numeric code in [100000, 999999].
func newCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// Issue generates and sends a fresh verification code for phone.
//
// Semantics:
//   - The phone must match the supported format; otherwise ErrInvalidPhone.
//   - First issuance for a phone creates the record with SendCount = 1.
//   - A reissue is a single conditional UPDATE; it fails with
//     ErrRateLimited once the daily budget is spent, or ErrTooFrequent
//     when the resend cooldown has not elapsed.
//   - On success the new code, expiry, and incremented SendCount are
//     committed before the gateway send. A gateway failure surfaces as
//     ErrGatewayFailure but the committed state stands.
//
// The returned record reflects the committed state; statuses are the
// gateway's per-recipient outcome (nil on gateway failure).
func (s *VerificationService) Issue(ctx context.Context, phone string) (*domain.VerificationRecord, []sms.SendStatus, error) {
	if !ValidPhone(phone) {
		return nil, nil, ErrInvalidPhone
	}

	now := s.now()
	code := newCode()
	expiresAt := now.Add(s.CodeTTL)
	resendBefore := now.Add(-s.ResendCooldown)

	rows, err := repo.ReissueVerification(ctx, s.DB, phone, code, now, expiresAt, resendBefore, s.MaxSendsPerDay)
	if err != nil {
		return nil, nil, err
	}

	if rows == 0 {
		existing, err := repo.GetVerification(ctx, s.DB, phone)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			rec := &domain.VerificationRecord{
				Phone:      phone,
				Code:       code,
				ExpiresAt:  expiresAt,
				LastSentAt: now,
				SendCount:  1,
			}
			if err := repo.InsertVerification(ctx, s.DB, rec); err != nil {
				// A concurrent first issuance won the insert; that request
				// sent a code within the cooldown window.
				if isDuplicate(err) {
					return nil, nil, ErrTooFrequent
				}
				return nil, nil, err
			}
		case err != nil:
			return nil, nil, err
		case existing.SendCount >= s.MaxSendsPerDay:
			return nil, nil, ErrRateLimited
		default:
			return nil, nil, ErrTooFrequent
		}
	}

	rec, err := repo.GetVerification(ctx, s.DB, phone)
	if err != nil {
		return nil, nil, err
	}

	ttlMinutes := strconv.Itoa(int(s.CodeTTL / time.Minute))
	statuses, err := s.Gateway.Send(ctx, []string{phone}, s.CodeTemplateID, []string{code, ttlMinutes})
	if err != nil {
		// State stays committed; the caller learns delivery failed.
		return rec, nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	return rec, statuses, nil
}

// Confirm checks a submitted code against the live record for phone.
//
// Semantics:
//   - No record: ErrNoCodeIssued.
//   - Record past its expiry: ErrCodeExpired, even on a textual match.
//   - Wrong code: ErrCodeMismatch; the record and its SendCount are left
//     untouched.
//   - Match: nil. Confirmation does not consume the record; the sweep
//     removes it once expired, and reissue stays governed by the
//     independent rate limits.
func (s *VerificationService) Confirm(ctx context.Context, phone, submittedCode string) error {
	rec, err := repo.GetVerification(ctx, s.DB, phone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoCodeIssued
		}
		return err
	}

	if s.now().After(rec.ExpiresAt) {
		return ErrCodeExpired
	}
	if rec.Code != submittedCode {
		return ErrCodeMismatch
	}
	return nil
}

// SweepExpired deletes every verification record whose expiry has passed
// and returns the number of rows removed. It is invoked by the scheduler,
// never by request handlers. Deleting a record also resets the phone's
// daily budget: the next issuance starts a fresh record at SendCount 1.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	return repo.DeleteExpiredVerifications(ctx, s.DB, s.now())
}
