package loyalty

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/utils"
	"gorm.io/gorm"
)

// ReferralCodeLength is the length of generated card referral codes.
const ReferralCodeLength = 8

// Service owns the stamp ledger and the redemption engine for loyalty
// cards. All balance mutations go through conditional or transactional
// writes against the database; there are no in-process locks, so the
// service is safe to run across multiple processes.
type Service struct {
	db *gorm.DB
}

// NewService creates a new loyalty service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetMerchantBySlug resolves a merchant by its public slug.
func (s *Service) GetMerchantBySlug(slug string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := s.db.Where("slug = ?", slug).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("error finding merchant: %w", err)
	}
	return &merchant, nil
}

// GetCard loads a loyalty card by id.
func (s *Service) GetCard(cardID uuid.UUID) (*models.LoyaltyCard, error) {
	var card models.LoyaltyCard
	if err := s.db.First(&card, "id = ?", cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("error finding loyalty card: %w", err)
	}
	return &card, nil
}

// GetOrCreateCustomerTx resolves the customer for (merchant, phone) or
// creates one inside the given transaction. The phone must already be
// normalized to E.164.
func (s *Service) GetOrCreateCustomerTx(tx *gorm.DB, merchant *models.Merchant, phone, firstName, lastName string) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Where("merchant_id = ? AND phone = ?", merchant.ID, phone).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding customer: %w", err)
	}

	customer = models.Customer{
		MerchantID: merchant.ID,
		Phone:      phone,
		FirstName:  firstName,
		LastName:   lastName,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("error creating customer: %w", err)
	}
	return &customer, nil
}

// GetOrCreateCardTx resolves the loyalty card for (customer, merchant)
// or creates one at zero stamps inside the given transaction. New cards
// copy the merchant's current stamp target and get their own referral
// code so the referral chain can continue transitively.
func (s *Service) GetOrCreateCardTx(tx *gorm.DB, customer *models.Customer, merchant *models.Merchant) (*models.LoyaltyCard, error) {
	var card models.LoyaltyCard
	err := tx.Where("customer_id = ? AND merchant_id = ?", customer.ID, merchant.ID).First(&card).Error
	if err == nil {
		return &card, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding loyalty card: %w", err)
	}

	card = models.LoyaltyCard{
		CustomerID:    customer.ID,
		MerchantID:    merchant.ID,
		CurrentStamps: 0,
		StampsTarget:  merchant.StampsRequired,
	}

	// Referral codes are globally unique; retry on the (tiny) chance of
	// a collision.
	for attempt := 0; attempt < 5; attempt++ {
		card.ID = uuid.Nil
		card.ReferralCode = utils.GenerateCode(ReferralCodeLength)
		err = tx.Create(&card).Error
		if err == nil {
			return &card, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("error creating loyalty card: %w", err)
		}
	}
	return nil, fmt.Errorf("error creating loyalty card: %w", err)
}

// authorizeCard verifies the acting user owns the merchant that owns
// the card. The authentication itself happens at the HTTP boundary;
// this is the authorization fact the engine enforces before mutating.
func (s *Service) authorizeCard(card *models.LoyaltyCard, userID uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := s.db.First(&merchant, "id = ?", card.MerchantID).Error; err != nil {
		return nil, fmt.Errorf("error finding merchant: %w", err)
	}
	if merchant.UserID != userID {
		return nil, ErrNotAuthorized
	}
	return &merchant, nil
}
