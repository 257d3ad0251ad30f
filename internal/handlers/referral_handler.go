package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/services/notify"
	"github.com/stampeo/backend/internal/services/referral"
	"gorm.io/gorm"
)

// ReferralHandler handles the public referral signup flow and voucher
// consumption.
type ReferralHandler struct {
	referralSvc *referral.Service
	notifier    *notify.Notifier
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(db *gorm.DB, notifier *notify.Notifier) *ReferralHandler {
	return &ReferralHandler{
		referralSvc: referral.NewService(db),
		notifier:    notifier,
	}
}

// Resolve looks up a referral code for the landing page. Unknown and
// disabled codes both come back valid=false with a 200, on purpose.
func (h *ReferralHandler) Resolve(c *gin.Context) {
	result, err := h.referralSvc.Resolve(c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Register signs up a referred customer
func (h *ReferralHandler) Register(c *gin.Context) {
	var input struct {
		ReferralCode string `json:"referral_code" binding:"required"`
		PhoneNumber  string `json:"phone_number" binding:"required"`
		FirstName    string `json:"first_name" binding:"required"`
		LastName     string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.referralSvc.Register(input.ReferralCode, input.PhoneNumber, input.FirstName, input.LastName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// UseVoucher consumes a voucher, exactly once
func (h *ReferralHandler) UseVoucher(c *gin.Context) {
	voucherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voucher ID"})
		return
	}

	var input struct {
		CustomerID string `json:"customer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customerID, err := uuid.Parse(input.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer ID"})
		return
	}

	result, err := h.referralSvc.ConsumeVoucher(voucherID, customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.ReferralCompleted && result.MintedVoucher != nil {
		h.notifier.ReferralVoucherMinted(notify.ReferralVoucherMintedPayload{
			MerchantID:        result.MintedVoucher.MerchantID,
			ReferrerID:        result.MintedVoucher.CustomerID,
			VoucherID:         result.MintedVoucher.ID,
			RewardDescription: result.MintedVoucher.RewardDescription,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"reward_description": result.RewardDescription,
		"referral_completed": result.ReferralCompleted,
	})
}

// ListVouchers returns a customer's vouchers
func (h *ReferralHandler) ListVouchers(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer ID"})
		return
	}

	vouchers, err := h.referralSvc.GetVouchers(customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, vouchers)
}
