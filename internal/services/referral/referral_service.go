package referral

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/services/loyalty"
	"github.com/stampeo/backend/internal/utils"
	"gorm.io/gorm"
)

// Service implements the referral engine: signup through a referrer's
// code, the referred customer's welcome voucher, and the chain reaction
// that mints the referrer's voucher when the referred one is consumed.
type Service struct {
	db      *gorm.DB
	loyalty *loyalty.Service
}

// NewService creates a new referral service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, loyalty: loyalty.NewService(db)}
}

// ResolveResult is the public metadata behind a referral link.
type ResolveResult struct {
	Valid             bool   `json:"valid"`
	ReferrerFirstName string `json:"referrer_first_name,omitempty"`
	MerchantName      string `json:"merchant_name,omitempty"`
	MerchantSlug      string `json:"merchant_slug,omitempty"`
	ReferredReward    string `json:"referred_reward,omitempty"`
}

// RegisterResult is the outcome of a referred signup.
type RegisterResult struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	CardID         uuid.UUID `json:"card_id"`
	VoucherID      uuid.UUID `json:"voucher_id"`
	ReferralCode   string    `json:"referral_code"`
	ReferredReward string    `json:"referred_reward"`
}

// ConsumeResult is the outcome of a voucher consumption, including the
// chain reaction when the voucher was the referred side of a pending
// referral.
type ConsumeResult struct {
	RewardDescription string          `json:"reward_description"`
	ReferralCompleted bool            `json:"referral_completed"`
	MintedVoucher     *models.Voucher `json:"-"`
}

// resolveReferrerCard finds the referrer card for an active referral
// program. Any failure collapses to ErrInvalidCode.
func (s *Service) resolveReferrerCard(code string) (*models.LoyaltyCard, *models.Customer, *models.Merchant, error) {
	var card models.LoyaltyCard
	if err := s.db.Where("referral_code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrInvalidCode
		}
		return nil, nil, nil, fmt.Errorf("error finding referral code: %w", err)
	}

	var merchant models.Merchant
	if err := s.db.First(&merchant, "id = ?", card.MerchantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrInvalidCode
		}
		return nil, nil, nil, fmt.Errorf("error finding merchant: %w", err)
	}
	if !merchant.ReferralEnabled {
		return nil, nil, nil, ErrInvalidCode
	}

	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", card.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrInvalidCode
		}
		return nil, nil, nil, fmt.Errorf("error finding referrer: %w", err)
	}

	return &card, &customer, &merchant, nil
}

// Resolve looks up a referral code for the public landing page. Unknown
// codes and disabled programs both come back as Valid=false; only
// infrastructure failures surface as errors.
func (s *Service) Resolve(code string) (*ResolveResult, error) {
	_, customer, merchant, err := s.resolveReferrerCard(code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return &ResolveResult{Valid: false}, nil
		}
		return nil, err
	}

	return &ResolveResult{
		Valid:             true,
		ReferrerFirstName: customer.FirstName,
		MerchantName:      merchant.Name,
		MerchantSlug:      merchant.Slug,
		ReferredReward:    merchant.ReferredRewardDescription,
	}, nil
}

// Register signs up a referred customer: new customer, new card with
// its own referral code, a welcome voucher carrying the merchant's
// referred-reward text, and a pending referral record. All of it runs
// in one transaction so a failed step leaves no orphaned rows.
func (s *Service) Register(code, phone, firstName, lastName string) (*RegisterResult, error) {
	referrerCard, referrer, merchant, err := s.resolveReferrerCard(code)
	if err != nil {
		return nil, err
	}

	normalized, err := utils.NormalizePhone(phone, merchant.Country)
	if err != nil {
		return nil, &loyalty.ValidationError{Field: "phone_number", Message: err.Error()}
	}

	if normalized == referrer.Phone {
		return nil, ErrSelfReferral
	}

	var existing models.Customer
	err = s.db.Where("merchant_id = ? AND phone = ?", merchant.ID, normalized).First(&existing).Error
	if err == nil {
		return nil, ErrExistingCustomer
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking existing customer: %w", err)
	}

	var result RegisterResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		customer := models.Customer{
			MerchantID: merchant.ID,
			Phone:      normalized,
			FirstName:  firstName,
			LastName:   lastName,
		}
		if err := tx.Create(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrExistingCustomer
			}
			return fmt.Errorf("error creating customer: %w", err)
		}

		card, err := s.loyalty.GetOrCreateCardTx(tx, &customer, merchant)
		if err != nil {
			return err
		}

		voucher := models.Voucher{
			MerchantID:        merchant.ID,
			CustomerID:        customer.ID,
			LoyaltyCardID:     card.ID,
			RewardDescription: merchant.ReferredRewardDescription,
			Source:            models.VoucherSourceReferred,
		}
		if err := tx.Create(&voucher).Error; err != nil {
			return fmt.Errorf("error creating voucher: %w", err)
		}

		referralRecord := models.Referral{
			MerchantID:         merchant.ID,
			ReferrerCardID:     referrerCard.ID,
			ReferrerCustomerID: referrer.ID,
			ReferredCardID:     card.ID,
			ReferredCustomerID: customer.ID,
			ReferredVoucherID:  voucher.ID,
			Status:             models.ReferralStatusPending,
		}
		if err := tx.Create(&referralRecord).Error; err != nil {
			return fmt.Errorf("error creating referral: %w", err)
		}

		result = RegisterResult{
			CustomerID:     customer.ID,
			CardID:         card.ID,
			VoucherID:      voucher.ID,
			ReferralCode:   card.ReferralCode,
			ReferredReward: merchant.ReferredRewardDescription,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ConsumeVoucher marks a voucher used, exactly once. An already-used
// voucher is a conflict, not an idempotent success, so a double click
// can never fire the chain reaction twice. When the voucher is the
// referred side of a pending referral and the merchant has a referrer
// reward configured, a fresh voucher is minted for the referrer and
// the referral completes; with no referrer reward configured the
// referral stays pending, which is intended merchant-dependent
// behavior.
func (s *Service) ConsumeVoucher(voucherID, customerID uuid.UUID) (*ConsumeResult, error) {
	var voucher models.Voucher
	err := s.db.Where("id = ? AND customer_id = ?", voucherID, customerID).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("error finding voucher: %w", err)
	}
	if voucher.IsUsed {
		return nil, ErrVoucherUsed
	}

	result := ConsumeResult{RewardDescription: voucher.RewardDescription}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		update := tx.Model(&models.Voucher{}).
			Where("id = ? AND is_used = ?", voucher.ID, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": now})
		if update.Error != nil {
			return fmt.Errorf("error consuming voucher: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return ErrVoucherUsed
		}

		// Chain reaction. Matching on referred_voucher_id means a
		// referrer-side voucher can never re-trigger it.
		var referralRecord models.Referral
		err := tx.Where("referred_voucher_id = ? AND status = ?", voucher.ID, models.ReferralStatusPending).
			First(&referralRecord).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error finding referral: %w", err)
		}

		var merchant models.Merchant
		if err := tx.First(&merchant, "id = ?", referralRecord.MerchantID).Error; err != nil {
			return fmt.Errorf("error finding merchant: %w", err)
		}
		if merchant.ReferrerRewardDescription == "" {
			return nil
		}

		minted := models.Voucher{
			MerchantID:        merchant.ID,
			CustomerID:        referralRecord.ReferrerCustomerID,
			LoyaltyCardID:     referralRecord.ReferrerCardID,
			RewardDescription: merchant.ReferrerRewardDescription,
			Source:            models.VoucherSourceReferrer,
		}
		if err := tx.Create(&minted).Error; err != nil {
			return fmt.Errorf("error minting referrer voucher: %w", err)
		}

		if err := tx.Model(&models.Referral{}).
			Where("id = ? AND status = ?", referralRecord.ID, models.ReferralStatusPending).
			Updates(map[string]interface{}{
				"status":              models.ReferralStatusCompleted,
				"referrer_voucher_id": minted.ID,
			}).Error; err != nil {
			return fmt.Errorf("error completing referral: %w", err)
		}

		result.ReferralCompleted = true
		result.MintedVoucher = &minted
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetVouchers lists a customer's vouchers, unused first.
func (s *Service) GetVouchers(customerID uuid.UUID) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	if err := s.db.Where("customer_id = ?", customerID).
		Order("is_used ASC, created_at DESC").
		Find(&vouchers).Error; err != nil {
		return nil, fmt.Errorf("error finding vouchers: %w", err)
	}
	return vouchers, nil
}
