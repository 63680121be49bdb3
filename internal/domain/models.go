// Package domain defines the persistence models for phone verification,
// canteens, and phone bindings. These types are mapped with GORM and form
// the core data layer of the SMS notification backend.
package domain

import "time"

// VerificationRecord tracks the live state of an issued SMS verification
// code for a single phone number. There is at most one row per phone: the
// first issuance inserts it, every reissue updates it in place, and the
// nightly sweep deletes it once ExpiresAt has passed.
//
// Fields:
//   - Phone: normalized number in +86 mobile format; primary key.
//   - Code: the 6-digit numeric code most recently sent.
//   - ExpiresAt: the code is no longer confirmable after this instant.
//   - LastSentAt: anchor for the per-phone resend cooldown.
//   - SendCount: issuances charged against the daily budget. Only the
//     sweep resets it, by deleting the row.
type VerificationRecord struct {
	Phone      string    `json:"phone"        gorm:"type:varchar(20);primaryKey"`
	Code       string    `json:"-"            gorm:"type:char(6);not null"`
	ExpiresAt  time.Time `json:"expires_at"   gorm:"not null;index"`
	LastSentAt time.Time `json:"last_sent_at" gorm:"not null"`
	SendCount  int       `json:"send_count"   gorm:"not null;default:0"`
}

// TableName returns the database table name for VerificationRecord.
func (VerificationRecord) TableName() string { return "phone_verifications" }

// Canteen represents a food-vendor account that receives order notices.
// LastNotifiedAt anchors the per-canteen notification throttle: a new
// notice may only go out once the cooldown window has elapsed. The column
// is checked and advanced in a single conditional UPDATE so that two
// concurrent notifications cannot both pass the window check.
type Canteen struct {
	ID             string    `json:"id"               gorm:"type:varchar(64);primaryKey"`
	Name           string    `json:"name"             gorm:"type:varchar(255);not null"`
	LastNotifiedAt time.Time `json:"last_notified_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Canteen.
func (Canteen) TableName() string { return "canteens" }

// PhoneBinding associates a verified phone number with a canteen. A canteen
// may hold a bounded number of bindings (three by default) and a given
// (canteen, phone) pair exists at most once, enforced by the unique index.
// Rows are only created after the phone's verification code was confirmed.
type PhoneBinding struct {
	ID        uint      `json:"-"          gorm:"primaryKey;autoIncrement"`
	CanteenID string    `json:"canteen_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_canteen_phone,priority:1;index"`
	Phone     string    `json:"phone"      gorm:"type:varchar(20);not null;uniqueIndex:ux_canteen_phone,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for PhoneBinding.
func (PhoneBinding) TableName() string { return "phone_bindings" }
