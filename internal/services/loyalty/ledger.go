package loyalty

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/utils"
	"gorm.io/gorm"
)

// CheckInResult is the outcome of a check-in attempt.
type CheckInResult struct {
	MerchantID     uuid.UUID `json:"merchant_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	CardID         uuid.UUID `json:"card_id"`
	CustomerName   string    `json:"customer_name"`
	NewStamps      int       `json:"new_stamps"`
	StampsRequired int       `json:"stamps_required"`

	// RewardUnlocked means the balance now meets the tier 1 threshold;
	// Tier2Unlocked the tier 2 one. Informational only: neither
	// redeems anything.
	RewardUnlocked bool `json:"reward_unlocked"`
	Tier2Unlocked  bool `json:"tier2_unlocked"`
}

// AdjustResult reports a manual adjustment. AppliedDelta differs from
// the requested delta when the zero floor clamped it.
type AdjustResult struct {
	Previous       int `json:"previous"`
	New            int `json:"new"`
	RequestedDelta int `json:"requested_delta"`
	AppliedDelta   int `json:"applied_delta"`
}

// merchantDay returns today's calendar day in the merchant's timezone.
func merchantDay(merchant *models.Merchant) string {
	loc, err := time.LoadLocation(merchant.Timezone)
	if err != nil {
		loc, _ = time.LoadLocation("Europe/Paris")
	}
	return time.Now().In(loc).Format(models.DateFormat)
}

// CheckIn adds one stamp to the customer's card for today, creating the
// customer and card on first visit. At most one stamp per merchant-local
// calendar day: the visit row's unique (card, day) index makes the
// second of two racing check-ins fail its insert instead of double
// counting.
func (s *Service) CheckIn(merchantSlug, phone, firstName, lastName string) (*CheckInResult, error) {
	merchant, err := s.GetMerchantBySlug(merchantSlug)
	if err != nil {
		return nil, err
	}

	normalized, err := utils.NormalizePhone(phone, merchant.Country)
	if err != nil {
		return nil, &ValidationError{Field: "phone_number", Message: err.Error()}
	}

	today := merchantDay(merchant)

	var result CheckInResult
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		customer, err := s.GetOrCreateCustomerTx(tx, merchant, normalized, firstName, lastName)
		if err != nil {
			return err
		}

		card, err := s.GetOrCreateCardTx(tx, customer, merchant)
		if err != nil {
			return err
		}

		result = CheckInResult{
			MerchantID:     merchant.ID,
			CustomerID:     customer.ID,
			CardID:         card.ID,
			CustomerName:   customer.FullName(),
			NewStamps:      card.CurrentStamps,
			StampsRequired: merchant.StampsRequired,
		}

		if card.LastVisitDate == today {
			return ErrAlreadyCheckedIn
		}

		visit := models.Visit{
			LoyaltyCardID: card.ID,
			MerchantID:    merchant.ID,
			VisitDate:     today,
		}
		if err := tx.Create(&visit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the same-day race: the other request's visit row
				// is already in. Same answer as the date check.
				return ErrAlreadyCheckedIn
			}
			return fmt.Errorf("error recording visit: %w", err)
		}

		if err := tx.Model(&models.LoyaltyCard{}).
			Where("id = ?", card.ID).
			Updates(map[string]interface{}{
				"current_stamps":  gorm.Expr("current_stamps + 1"),
				"last_visit_date": today,
			}).Error; err != nil {
			return fmt.Errorf("error incrementing stamps: %w", err)
		}

		var updated models.LoyaltyCard
		if err := tx.First(&updated, "id = ?", card.ID).Error; err != nil {
			return fmt.Errorf("error reloading loyalty card: %w", err)
		}

		result.NewStamps = updated.CurrentStamps
		result.RewardUnlocked = updated.CurrentStamps >= merchant.StampsRequired
		result.Tier2Unlocked = merchant.Tier2Enabled && updated.CurrentStamps >= merchant.Tier2StampsRequired
		return nil
	})

	if errors.Is(txErr, ErrAlreadyCheckedIn) {
		// The balance in result is the unchanged pre-check value for the
		// date-equality path; reload it for the insert-race path where
		// the transaction rolled back mid-flight.
		if card, loadErr := s.GetCard(result.CardID); loadErr == nil {
			result.NewStamps = card.CurrentStamps
		}
		return &result, ErrAlreadyCheckedIn
	}
	if txErr != nil {
		return nil, txErr
	}

	return &result, nil
}

// AdjustPoints applies a signed manual delta to a card's balance,
// clamped at zero. The audit row stores both the requested and the
// applied delta in the same transaction as the balance change, so the
// trail can never disagree with the ledger.
func (s *Service) AdjustPoints(cardID, actorUserID uuid.UUID, delta int, reason string) (*AdjustResult, error) {
	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}

	merchant, err := s.authorizeCard(card, actorUserID)
	if err != nil {
		return nil, err
	}

	previous := card.CurrentStamps
	newBalance := previous + delta
	if newBalance < 0 {
		newBalance = 0
	}
	applied := newBalance - previous

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LoyaltyCard{}).
			Where("id = ?", card.ID).
			Update("current_stamps", newBalance).Error; err != nil {
			return fmt.Errorf("error updating balance: %w", err)
		}

		adjustment := models.PointAdjustment{
			LoyaltyCardID:  card.ID,
			MerchantID:     merchant.ID,
			UserID:         actorUserID,
			RequestedDelta: delta,
			AppliedDelta:   applied,
			NewBalance:     newBalance,
			Reason:         reason,
		}
		if err := tx.Create(&adjustment).Error; err != nil {
			return fmt.Errorf("error recording adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AdjustResult{
		Previous:       previous,
		New:            newBalance,
		RequestedDelta: delta,
		AppliedDelta:   applied,
	}, nil
}
