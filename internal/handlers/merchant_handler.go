package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/stampeo/backend/internal/models"
	"gorm.io/gorm"
)

// MerchantHandler manages merchant creation and reward configuration:
// the settings surface the loyalty core reads from.
type MerchantHandler struct {
	db *gorm.DB
}

// NewMerchantHandler creates a new merchant handler
func NewMerchantHandler(db *gorm.DB) *MerchantHandler {
	return &MerchantHandler{db: db}
}

// authedUserID extracts the authenticated user id set by the auth
// middleware.
func authedUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return uuid.Nil, false
	}
	return userID, true
}

// requireMerchantOwner loads a merchant from the :id param and checks
// the authenticated user owns it. Not-found and not-owned get distinct
// responses so legitimate callers are never left guessing.
func requireMerchantOwner(c *gin.Context, db *gorm.DB) (*models.Merchant, bool) {
	userID, ok := authedUserID(c)
	if !ok {
		return nil, false
	}

	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid merchant ID"})
		return nil, false
	}

	var merchant models.Merchant
	if err := db.First(&merchant, "id = ?", merchantID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "merchant not found"})
		return nil, false
	}

	if merchant.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}

	return &merchant, true
}

type merchantSettingsInput struct {
	StampsRequired    *int    `json:"stamps_required"`
	RewardDescription *string `json:"reward_description"`

	Tier2Enabled           *bool   `json:"tier2_enabled"`
	Tier2StampsRequired    *int    `json:"tier2_stamps_required"`
	Tier2RewardDescription *string `json:"tier2_reward_description"`

	ReferralEnabled           *bool   `json:"referral_enabled"`
	ReferredRewardDescription *string `json:"referred_reward_description"`
	ReferrerRewardDescription *string `json:"referrer_reward_description"`
}

// CreateMerchant creates a merchant owned by the authenticated user
func (h *MerchantHandler) CreateMerchant(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var input struct {
		Name     string `json:"name" binding:"required"`
		Country  string `json:"country"`
		Timezone string `json:"timezone"`
		merchantSettingsInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	merchant := models.Merchant{
		UserID:   userID,
		Name:     input.Name,
		Country:  "FR",
		Timezone: "Europe/Paris",
	}
	if input.Country != "" {
		merchant.Country = input.Country
	}
	if input.Timezone != "" {
		merchant.Timezone = input.Timezone
	}
	merchant.StampsRequired = 10
	applySettings(&merchant, input.merchantSettingsInput)

	// Slugs are public (printed on QR flyers), so keep them readable
	// and deduplicate with a numeric suffix.
	base := slug.Make(input.Name)
	merchant.Slug = base
	for i := 2; ; i++ {
		var count int64
		if err := h.db.Model(&models.Merchant{}).Where("slug = ?", merchant.Slug).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create merchant"})
			return
		}
		if count == 0 {
			break
		}
		merchant.Slug = fmt.Sprintf("%s-%d", base, i)
	}

	if err := h.db.Create(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "merchant slug already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create merchant"})
		return
	}

	c.JSON(http.StatusCreated, merchant)
}

// GetSettings returns a merchant's reward configuration
func (h *MerchantHandler) GetSettings(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, merchant)
}

// UpdateSettings updates a merchant's reward configuration
func (h *MerchantHandler) UpdateSettings(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}

	var input merchantSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applySettings(merchant, input)
	if merchant.StampsRequired < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stamps_required must be at least 1"})
		return
	}
	if merchant.Tier2Enabled && merchant.Tier2StampsRequired <= merchant.StampsRequired {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier2_stamps_required must be greater than stamps_required"})
		return
	}

	if err := h.db.Save(merchant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, merchant)
}

func applySettings(merchant *models.Merchant, input merchantSettingsInput) {
	if input.StampsRequired != nil {
		merchant.StampsRequired = *input.StampsRequired
	}
	if input.RewardDescription != nil {
		merchant.RewardDescription = *input.RewardDescription
	}
	if input.Tier2Enabled != nil {
		merchant.Tier2Enabled = *input.Tier2Enabled
	}
	if input.Tier2StampsRequired != nil {
		merchant.Tier2StampsRequired = *input.Tier2StampsRequired
	}
	if input.Tier2RewardDescription != nil {
		merchant.Tier2RewardDescription = *input.Tier2RewardDescription
	}
	if input.ReferralEnabled != nil {
		merchant.ReferralEnabled = *input.ReferralEnabled
	}
	if input.ReferredRewardDescription != nil {
		merchant.ReferredRewardDescription = *input.ReferredRewardDescription
	}
	if input.ReferrerRewardDescription != nil {
		merchant.ReferrerRewardDescription = *input.ReferrerRewardDescription
	}
}
