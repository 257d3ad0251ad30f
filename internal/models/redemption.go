package models

import (
	"github.com/google/uuid"
)

// Redemption tiers.
const (
	Tier1 = 1
	Tier2 = 2
)

// Redemption is the immutable audit record of a reward claim. It is
// also the source of truth for the current accumulation cycle: the most
// recent tier 2 redemption marks the cycle boundary, and a tier 1
// redemption recorded after it means tier 1 is spent for this cycle.
type Redemption struct {
	Base
	LoyaltyCardID uuid.UUID   `gorm:"type:uuid;not null;index" json:"loyalty_card_id"`
	LoyaltyCard   LoyaltyCard `gorm:"foreignKey:LoyaltyCardID" json:"-"`
	MerchantID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Tier          int         `gorm:"not null" json:"tier"`

	// StampsSpent is the balance actually consumed: the pre-reset
	// balance when the redemption reset the card, 0 for a cumulative
	// tier 1 milestone.
	StampsSpent       int    `gorm:"not null" json:"stamps_spent"`
	RewardDescription string `gorm:"type:text" json:"reward_description"`
}
