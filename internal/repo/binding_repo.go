// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PhoneBinding model.
//
// Error semantics:
//   - Duplicate bindings (same canteen_id, phone) rely on the database
//     unique constraint and are returned as a raw DB error. The service
//     layer translates that into a domain error (e.g. ErrAlreadyBound).
//   - DeleteBinding is idempotent; deleting an absent row is not an error.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xmuorder/go-sms-backend/internal/domain"
)

// CountBindings returns how many phones are currently bound to the canteen.
func CountBindings(ctx context.Context, db *gorm.DB, canteenID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.PhoneBinding{}).
		Where("canteen_id = ?", canteenID).
		Count(&total).Error
	return total, err
}

// BindingExists reports whether the exact (canteen, phone) pair is bound.
func BindingExists(ctx context.Context, db *gorm.DB, canteenID, phone string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.PhoneBinding{}).
		Where("canteen_id = ? AND phone = ?", canteenID, phone).
		Count(&total).Error
	return total > 0, err
}

// CreateBinding inserts a (canteen, phone) row. The pair must be unique,
// enforced by the schema; a violation surfaces as a DB error.
func CreateBinding(ctx context.Context, db *gorm.DB, canteenID, phone string) error {
	b := &domain.PhoneBinding{
		CanteenID: canteenID,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(b).Error
}

// DeleteBinding removes the (canteen, phone) pair if it exists. Absence is
// not an error; the operation is idempotent.
func DeleteBinding(ctx context.Context, db *gorm.DB, canteenID, phone string) error {
	return db.WithContext(ctx).
		Where("canteen_id = ? AND phone = ?", canteenID, phone).
		Delete(&domain.PhoneBinding{}).Error
}

// ListBindingPhones returns the phones bound to a canteen, ordered by
// binding time ascending so the list is stable across calls.
func ListBindingPhones(ctx context.Context, db *gorm.DB, canteenID string) ([]string, error) {
	var phones []string
	err := db.WithContext(ctx).
		Model(&domain.PhoneBinding{}).
		Where("canteen_id = ?", canteenID).
		Order("created_at asc, id asc").
		Pluck("phone", &phones).Error
	return phones, err
}

// ListBoundPhones resolves a set of canteens to the distinct phone numbers
// bound across all of them. Used to build the recipient list of a batch
// notification after throttling.
func ListBoundPhones(ctx context.Context, db *gorm.DB, canteenIDs []string) ([]string, error) {
	if len(canteenIDs) == 0 {
		return []string{}, nil
	}
	var phones []string
	err := db.WithContext(ctx).
		Model(&domain.PhoneBinding{}).
		Distinct("phone").
		Where("canteen_id IN ?", canteenIDs).
		Order("phone asc").
		Pluck("phone", &phones).Error
	return phones, err
}
