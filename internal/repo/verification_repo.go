// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// VerificationRecord model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
//
// Concurrency:
//   - ReissueVerification is a single conditional UPDATE. The rate-limit and
//     cooldown preconditions are part of the statement's WHERE clause, so two
//     concurrent issuances for the same phone can never both pass a stale
//     check: the database serializes the read-modify-write.
//
// Error semantics:
//   - When a record is not found, functions return ErrNotFound
//     (alias of gorm.ErrRecordNotFound).
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xmuorder/go-sms-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetVerification fetches the live verification record for phone, or
// ErrNotFound if none exists.
func GetVerification(ctx context.Context, db *gorm.DB, phone string) (*domain.VerificationRecord, error) {
	var rec domain.VerificationRecord
	err := db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// InsertVerification creates the first record for a phone. The caller sets
// SendCount to 1 for the initial issuance. A unique-constraint failure means
// a concurrent request inserted the row first; the caller should treat that
// as losing the race rather than as success.
func InsertVerification(ctx context.Context, db *gorm.DB, rec *domain.VerificationRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

// ReissueVerification updates an existing record with a fresh code in a
// single conditional statement. The update only applies when the daily
// budget is not exhausted and the resend cooldown has elapsed:
//
//	send_count < maxPerDay AND last_sent_at <= resendBefore
//
// It returns the number of rows affected: 1 when the reissue was charged,
// 0 when the record is missing or one of the preconditions failed. The
// caller disambiguates a zero result with a follow-up read.
func ReissueVerification(ctx context.Context, db *gorm.DB, phone, code string, now, expiresAt, resendBefore time.Time, maxPerDay int) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.VerificationRecord{}).
		Where("phone = ? AND send_count < ? AND last_sent_at <= ?", phone, maxPerDay, resendBefore).
		Updates(map[string]any{
			"code":         code,
			"expires_at":   expiresAt,
			"last_sent_at": now,
			"send_count":   gorm.Expr("send_count + 1"),
		})
	return res.RowsAffected, res.Error
}

// DeleteExpiredVerifications removes every record whose expiry has passed
// and reports how many rows were swept. Unexpired records, including ones
// whose code was already confirmed, are left untouched.
func DeleteExpiredVerifications(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.VerificationRecord{})
	return res.RowsAffected, res.Error
}
