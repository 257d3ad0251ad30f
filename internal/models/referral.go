package models

import (
	"github.com/google/uuid"
)

// Referral statuses. A referral with no configured referrer reward
// stays pending forever; that is merchant configuration, not a bug.
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
)

// Referral links a referrer card/customer to a referred card/customer.
// ReferrerVoucherID is null while pending and set exactly once when the
// referred customer's voucher is consumed and the chain completes.
type Referral struct {
	Base
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`

	ReferrerCardID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_referrals_pair" json:"referrer_card_id"`
	ReferrerCustomerID uuid.UUID `gorm:"type:uuid;not null" json:"referrer_customer_id"`
	ReferredCardID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_referrals_pair" json:"referred_card_id"`
	ReferredCustomerID uuid.UUID `gorm:"type:uuid;not null" json:"referred_customer_id"`

	ReferredVoucherID uuid.UUID  `gorm:"type:uuid;not null" json:"referred_voucher_id"`
	ReferrerVoucherID *uuid.UUID `gorm:"type:uuid" json:"referrer_voucher_id"`

	Status string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}
