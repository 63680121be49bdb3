// Package services – BindingService
//
// This file implements binding verified phone numbers to canteens. A bind
// re-checks the phone format, enforces the per-canteen phone cap and pair
// uniqueness, delegates code validation to the VerificationService, and
// commits the canteen upsert together with the binding insert in one
// transaction so partial application is never observable.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xmuorder/go-sms-backend/internal/repo"
)

// CodeConfirmer validates a submitted verification code for a phone.
// Satisfied by *VerificationService; a narrow interface keeps the binding
// logic testable without live SMS state.
type CodeConfirmer interface {
	Confirm(ctx context.Context, phone, code string) error
}

// BindingService implements the use-cases around canteen phone bindings.
type BindingService struct {
	// DB is the database handle used for all binding operations.
	DB *gorm.DB

	// Verifier confirms the submitted code before any binding is created.
	Verifier CodeConfirmer

	// MaxPhones caps how many phones one canteen may bind.
	MaxPhones int
}

// Bind associates phone with the canteen after validating the submitted
// verification code.
//
// Semantics and validation:
//   - phone must match the supported format; otherwise ErrInvalidPhone.
//   - The canteen may hold at most MaxPhones bindings; otherwise
//     ErrPhoneLimitExceeded.
//   - The exact (canteen, phone) pair must not exist; otherwise
//     ErrAlreadyBound.
//   - Code validation is delegated to the Verifier and its errors
//     (ErrNoCodeIssued, ErrCodeExpired, ErrCodeMismatch) propagate
//     unchanged.
//
// Concurrency & atomicity:
//   - Capacity check, duplicate check, canteen name upsert, and binding
//     insert all run in one transaction. Two concurrent binds cannot both
//     observe "2 bound" and end up at 4; the loser of an insert race on
//     the unique index surfaces as ErrAlreadyBound.
func (s *BindingService) Bind(ctx context.Context, canteenID, canteenName, phone, code string) error {
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repo.CountBindings(ctx, tx, canteenID)
		if err != nil {
			return err
		}
		if n >= int64(s.MaxPhones) {
			return ErrPhoneLimitExceeded
		}

		exists, err := repo.BindingExists(ctx, tx, canteenID, phone)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyBound
		}

		if err := s.Verifier.Confirm(ctx, phone, code); err != nil {
			return err
		}

		if err := repo.UpsertCanteen(ctx, tx, canteenID, canteenName); err != nil {
			return err
		}
		if err := repo.CreateBinding(ctx, tx, canteenID, phone); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrAlreadyBound
			}
			return err
		}
		return nil
	})
}

// Unbind removes the (canteen, phone) pair. The operation is idempotent;
// removing an absent binding succeeds.
func (s *BindingService) Unbind(ctx context.Context, canteenID, phone string) error {
	return repo.DeleteBinding(ctx, s.DB, canteenID, phone)
}

// ListPhones returns the phones bound to a canteen in binding order. It is
// read-only and has no side effects.
func (s *BindingService) ListPhones(ctx context.Context, canteenID string) ([]string, error) {
	return repo.ListBindingPhones(ctx, s.DB, canteenID)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
