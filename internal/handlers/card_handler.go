package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/services/loyalty"
	"gorm.io/gorm"
)

// CardHandler handles merchant-side loyalty card operations:
// adjustments, redemptions and reward state.
type CardHandler struct {
	loyaltySvc *loyalty.Service
}

// NewCardHandler creates a new card handler
func NewCardHandler(db *gorm.DB) *CardHandler {
	return &CardHandler{loyaltySvc: loyalty.NewService(db)}
}

func cardIDParam(c *gin.Context) (uuid.UUID, bool) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card ID"})
		return uuid.Nil, false
	}
	return cardID, true
}

// GetState returns the card's logical reward state for the dashboard
func (h *CardHandler) GetState(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	cardID, ok := cardIDParam(c)
	if !ok {
		return
	}

	state, err := h.loyaltySvc.RewardState(cardID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Adjust applies a manual signed delta to the card balance
func (h *CardHandler) Adjust(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	cardID, ok := cardIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Delta  *int   `json:"delta" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *input.Delta == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta must not be zero"})
		return
	}

	result, err := h.loyaltySvc.AdjustPoints(cardID, userID, *input.Delta, input.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Redeem exchanges an eligible balance for a tier reward
func (h *CardHandler) Redeem(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	cardID, ok := cardIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Tier int `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.loyaltySvc.Redeem(cardID, userID, input.Tier)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
