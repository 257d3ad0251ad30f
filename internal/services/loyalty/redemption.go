package loyalty

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"gorm.io/gorm"
)

// Logical reward states derived from the balance and redemption
// history. Nothing is stored: the most recent tier 2 redemption is the
// cycle boundary.
const (
	StateBelowTier1                = "below_tier1"
	StateTier1Ready                = "tier1_ready"
	StateTier1ClaimedAwaitingTier2 = "tier1_claimed_awaiting_tier2"
	StateTier2Ready                = "tier2_ready"
)

// RedeemResult is the outcome of a successful redemption.
type RedeemResult struct {
	Tier              int    `json:"tier"`
	RewardDescription string `json:"reward_description"`
	StampsReset       bool   `json:"stamps_reset"`
	StampsSpent       int    `json:"stamps_spent"`
}

// CardState is the read-only reward state exposed for dashboards.
type CardState struct {
	State                 string `json:"state"`
	CurrentStamps         int    `json:"current_stamps"`
	StampsRequired        int    `json:"stamps_required"`
	Tier2Enabled          bool   `json:"tier2_enabled"`
	Tier2StampsRequired   int    `json:"tier2_stamps_required,omitempty"`
	Tier1ClaimedThisCycle bool   `json:"tier1_claimed_this_cycle"`
}

// tier1ClaimedThisCycle reports whether a tier 1 redemption exists
// after the most recent tier 2 redemption (or ever, if the card has no
// tier 2 redemption yet).
func (s *Service) tier1ClaimedThisCycle(cardID uuid.UUID) (bool, error) {
	var lastTier2 models.Redemption
	err := s.db.Where("loyalty_card_id = ? AND tier = ?", cardID, models.Tier2).
		Order("created_at DESC").
		First(&lastTier2).Error
	hasTier2 := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error reading redemption history: %w", err)
	}

	query := s.db.Model(&models.Redemption{}).
		Where("loyalty_card_id = ? AND tier = ?", cardID, models.Tier1)
	if hasTier2 {
		query = query.Where("created_at > ?", lastTier2.CreatedAt)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("error reading redemption history: %w", err)
	}
	return count > 0, nil
}

// Redeem exchanges an eligible balance for the reward of the given
// tier. Tier 2 redemptions (and tier 1 for single-tier merchants)
// reset the balance through a conditional update: the reset only lands
// if the balance still meets the threshold at write time. A zero row
// count means a concurrent redemption won, and the caller gets a
// conflict instead of a double spend. The redemption record is only
// inserted after the reset succeeds, never before.
func (s *Service) Redeem(cardID, actorUserID uuid.UUID, tier int) (*RedeemResult, error) {
	if tier != models.Tier1 && tier != models.Tier2 {
		return nil, &ValidationError{Field: "tier", Message: "tier must be 1 or 2"}
	}

	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}

	merchant, err := s.authorizeCard(card, actorUserID)
	if err != nil {
		return nil, err
	}

	if tier == models.Tier2 && !merchant.Tier2Enabled {
		return nil, ErrTierDisabled
	}

	required := merchant.RequiredForTier(tier)
	if card.CurrentStamps < required {
		return nil, &InsufficientStampsError{Current: card.CurrentStamps, Required: required}
	}

	// Tier 1 is claimable once per cycle when tier 2 is enabled; the
	// customer should continue on to tier 2 instead.
	if tier == models.Tier1 && merchant.Tier2Enabled {
		claimed, err := s.tier1ClaimedThisCycle(card.ID)
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, ErrCycleViolation
		}
	}

	description := merchant.RewardDescription
	if tier == models.Tier2 {
		description = merchant.Tier2RewardDescription
	}

	// Single-tier shops always reset on redemption; with tier 2 enabled
	// a tier 1 claim is a free milestone and the balance keeps growing.
	reset := tier == models.Tier2 || !merchant.Tier2Enabled

	result := RedeemResult{
		Tier:              tier,
		RewardDescription: description,
		StampsReset:       reset,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if reset {
			update := tx.Model(&models.LoyaltyCard{}).
				Where("id = ? AND current_stamps >= ?", card.ID, required).
				Update("current_stamps", 0)
			if update.Error != nil {
				return fmt.Errorf("error resetting stamps: %w", update.Error)
			}
			if update.RowsAffected == 0 {
				return ErrRedemptionConflict
			}
			result.StampsSpent = card.CurrentStamps
		}

		redemption := models.Redemption{
			LoyaltyCardID:     card.ID,
			MerchantID:        merchant.ID,
			Tier:              tier,
			StampsSpent:       result.StampsSpent,
			RewardDescription: description,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return fmt.Errorf("error recording redemption: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// RewardState derives the card's logical reward state for display.
func (s *Service) RewardState(cardID, actorUserID uuid.UUID) (*CardState, error) {
	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}

	merchant, err := s.authorizeCard(card, actorUserID)
	if err != nil {
		return nil, err
	}

	state := &CardState{
		CurrentStamps:       card.CurrentStamps,
		StampsRequired:      merchant.StampsRequired,
		Tier2Enabled:        merchant.Tier2Enabled,
		Tier2StampsRequired: merchant.Tier2StampsRequired,
	}

	if !merchant.Tier2Enabled {
		if card.CurrentStamps >= merchant.StampsRequired {
			state.State = StateTier1Ready
		} else {
			state.State = StateBelowTier1
		}
		return state, nil
	}

	claimed, err := s.tier1ClaimedThisCycle(card.ID)
	if err != nil {
		return nil, err
	}
	state.Tier1ClaimedThisCycle = claimed

	switch {
	case card.CurrentStamps >= merchant.Tier2StampsRequired:
		state.State = StateTier2Ready
	case claimed:
		state.State = StateTier1ClaimedAwaitingTier2
	case card.CurrentStamps >= merchant.StampsRequired:
		state.State = StateTier1Ready
	default:
		state.State = StateBelowTier1
	}
	return state, nil
}
