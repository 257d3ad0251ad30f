package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stampeo/backend/internal/services/loyalty"
	"github.com/stampeo/backend/internal/services/referral"
)

// respondServiceError maps service errors to the HTTP error taxonomy:
// 400 validation, 404 not-found, 403 authorization, 409 conflict (lost
// race, safe to retry after re-reading), 422 business-rule rejection,
// 500 for everything downstream.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *loyalty.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var insufficientErr *loyalty.InsufficientStampsError
	if errors.As(err, &insufficientErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    insufficientErr.Error(),
			"current":  insufficientErr.Current,
			"required": insufficientErr.Required,
		})
		return
	}

	switch {
	case errors.Is(err, loyalty.ErrMerchantNotFound),
		errors.Is(err, loyalty.ErrCardNotFound),
		errors.Is(err, referral.ErrVoucherNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, loyalty.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, loyalty.ErrRedemptionConflict),
		errors.Is(err, referral.ErrVoucherUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, loyalty.ErrAlreadyCheckedIn),
		errors.Is(err, loyalty.ErrTierDisabled),
		errors.Is(err, loyalty.ErrCycleViolation),
		errors.Is(err, referral.ErrInvalidCode),
		errors.Is(err, referral.ErrSelfReferral),
		errors.Is(err, referral.ErrExistingCustomer):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
