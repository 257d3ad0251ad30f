package models

import (
	"time"

	"github.com/google/uuid"
)

// Voucher sources.
const (
	VoucherSourceReferred = "referred"
	VoucherSourceReferrer = "referrer"
)

// Voucher is a single-use reward grant independent of the stamp
// counter. RewardDescription is copied from the merchant configuration
// at creation time and never updated afterwards.
type Voucher struct {
	Base
	MerchantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	LoyaltyCardID uuid.UUID `gorm:"type:uuid;not null" json:"loyalty_card_id"`

	RewardDescription string     `gorm:"type:text;not null" json:"reward_description"`
	Source            string     `gorm:"type:varchar(20);not null" json:"source"`
	IsUsed            bool       `gorm:"not null;default:false" json:"is_used"`
	UsedAt            *time.Time `json:"used_at"`
}
