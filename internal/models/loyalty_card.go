package models

import (
	"github.com/google/uuid"
)

// LoyaltyCard is the stamp ledger row for one (customer, merchant)
// pair. CurrentStamps is only ever mutated by check-in (+1), manual
// adjustment (clamped at 0) and redemption reset (to 0).
type LoyaltyCard struct {
	Base
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cards_customer_merchant" json:"customer_id"`
	Customer   Customer  `gorm:"foreignKey:CustomerID" json:"-"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cards_customer_merchant" json:"merchant_id"`
	Merchant   Merchant  `gorm:"foreignKey:MerchantID" json:"-"`

	CurrentStamps int `gorm:"not null;default:0" json:"current_stamps"`

	// StampsTarget is the merchant's required-stamps value copied at
	// card creation. Informational only: the engine always reads the
	// live merchant configuration.
	StampsTarget int `gorm:"not null;default:0" json:"stamps_target"`

	// LastVisitDate is a calendar day in the merchant's timezone,
	// formatted with DateFormat. Empty means no visit yet.
	LastVisitDate string `gorm:"type:varchar(10)" json:"last_visit_date"`

	ReferralCode string `gorm:"type:varchar(12);uniqueIndex;not null" json:"referral_code"`
}
