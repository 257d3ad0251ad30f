package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/services/loyalty"
	"github.com/stampeo/backend/internal/services/notify"
	"gorm.io/gorm"
)

// CheckInHandler handles the public QR check-in flow
type CheckInHandler struct {
	loyaltySvc *loyalty.Service
	notifier   *notify.Notifier
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(db *gorm.DB, notifier *notify.Notifier) *CheckInHandler {
	return &CheckInHandler{
		loyaltySvc: loyalty.NewService(db),
		notifier:   notifier,
	}
}

// CheckIn adds a stamp for today's visit
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var input struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.loyaltySvc.CheckIn(c.Param("slug"), input.PhoneNumber, input.FirstName, input.LastName)
	if errors.Is(err, loyalty.ErrAlreadyCheckedIn) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          err.Error(),
			"current_stamps": result.NewStamps,
			"customer_name":  result.CustomerName,
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Notification events are fire-and-forget; they never delay or fail
	// the check-in response.
	h.notifier.StampAdded(notify.StampAddedPayload{
		MerchantID:    result.MerchantID,
		LoyaltyCardID: result.CardID,
		CustomerID:    result.CustomerID,
		CustomerName:  result.CustomerName,
		NewStamps:     result.NewStamps,
		StampsTarget:  result.StampsRequired,
	})
	if result.Tier2Unlocked {
		h.notifier.RewardUnlocked(notify.RewardUnlockedPayload{
			MerchantID:    result.MerchantID,
			LoyaltyCardID: result.CardID,
			CustomerID:    result.CustomerID,
			CustomerName:  result.CustomerName,
			Tier:          models.Tier2,
		})
	} else if result.RewardUnlocked {
		h.notifier.RewardUnlocked(notify.RewardUnlockedPayload{
			MerchantID:    result.MerchantID,
			LoyaltyCardID: result.CardID,
			CustomerID:    result.CustomerID,
			CustomerName:  result.CustomerName,
			Tier:          models.Tier1,
		})
	}

	c.JSON(http.StatusOK, result)
}
