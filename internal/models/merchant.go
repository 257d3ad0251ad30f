package models

import (
	"github.com/google/uuid"
)

// Merchant holds a shop's loyalty program configuration. The ledger and
// redemption engine read it but never write it; it is owned by the
// merchant settings surface.
type Merchant struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`

	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Slug     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Country  string `gorm:"type:varchar(2);not null;default:'FR'" json:"country"`
	Timezone string `gorm:"type:varchar(50);not null;default:'Europe/Paris'" json:"timezone"`

	// Tier 1 reward configuration.
	StampsRequired    int    `gorm:"not null;default:10" json:"stamps_required"`
	RewardDescription string `gorm:"type:text" json:"reward_description"`

	// Optional tier 2. When enabled, tier 1 becomes a cumulative
	// milestone and only a tier 2 redemption resets the card.
	Tier2Enabled           bool   `gorm:"default:false" json:"tier2_enabled"`
	Tier2StampsRequired    int    `gorm:"default:0" json:"tier2_stamps_required"`
	Tier2RewardDescription string `gorm:"type:text" json:"tier2_reward_description"`

	// Referral program configuration. An empty referrer reward text is
	// valid: referred customers still get their voucher, but referrals
	// stay pending forever.
	ReferralEnabled           bool   `gorm:"default:false" json:"referral_enabled"`
	ReferredRewardDescription string `gorm:"type:text" json:"referred_reward_description"`
	ReferrerRewardDescription string `gorm:"type:text" json:"referrer_reward_description"`
}

// RequiredForTier returns the stamp threshold for a reward tier.
func (m *Merchant) RequiredForTier(tier int) int {
	if tier == 2 {
		return m.Tier2StampsRequired
	}
	return m.StampsRequired
}
