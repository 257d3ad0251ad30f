package models

import (
	"github.com/google/uuid"
)

// PointAdjustment is an append-only audit record of a manual balance
// change. RequestedDelta and AppliedDelta differ when the zero floor
// clamped a negative adjustment; both are stored so the discrepancy
// stays queryable.
type PointAdjustment struct {
	Base
	LoyaltyCardID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"loyalty_card_id"`
	LoyaltyCard    LoyaltyCard `gorm:"foreignKey:LoyaltyCardID" json:"-"`
	MerchantID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"merchant_id"`
	UserID         uuid.UUID   `gorm:"type:uuid;not null" json:"user_id"`
	RequestedDelta int         `gorm:"not null" json:"requested_delta"`
	AppliedDelta   int         `gorm:"not null" json:"applied_delta"`
	NewBalance     int         `gorm:"not null" json:"new_balance"`
	Reason         string      `gorm:"type:text" json:"reason"`
}
