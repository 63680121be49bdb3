// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Canteen
// model, including the atomic notification-throttle claim.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xmuorder/go-sms-backend/internal/domain"
)

// UpsertCanteen inserts the canteen row or, when the ID already exists,
// refreshes its display name. Safe to call inside a transaction handle.
func UpsertCanteen(ctx context.Context, db *gorm.DB, id, name string) error {
	now := time.Now().UTC()
	c := &domain.Canteen{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"name": name, "updated_at": now}),
		}).
		Create(c).Error
}

// ClaimNotifySlot advances last_notified_at for the canteen, but only when
// the previous notice is older than the cooldown window. Check and update
// are one conditional statement, so when several claims race for the same
// canteen at most one of them wins the slot within a window.
//
// It returns true when the claim succeeded. A canteen that does not exist
// cannot be claimed and yields false.
func ClaimNotifySlot(ctx context.Context, db *gorm.DB, canteenID string, now time.Time, window time.Duration) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Canteen{}).
		Where("id = ? AND last_notified_at <= ?", canteenID, now.Add(-window)).
		Updates(map[string]any{"last_notified_at": now, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetCanteen fetches a canteen by ID, or ErrNotFound.
func GetCanteen(ctx context.Context, db *gorm.DB, id string) (*domain.Canteen, error) {
	var c domain.Canteen
	err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
