package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stampeo/backend/internal/services/stats"
	"gorm.io/gorm"
)

// StatsHandler exposes the read-only audit trails (visits, redemptions,
// adjustments) to the owning merchant's dashboard.
type StatsHandler struct {
	db       *gorm.DB
	statsSvc *stats.Service
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db, statsSvc: stats.NewService(db)}
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if err != nil || pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

// GetVisits returns a merchant's visit history
func (h *StatsHandler) GetVisits(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	visits, total, err := h.statsSvc.GetVisits(merchant.ID, c.Query("from"), c.Query("to"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get visits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits, "total": total})
}

// GetRedemptions returns a merchant's redemption history
func (h *StatsHandler) GetRedemptions(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	redemptions, total, err := h.statsSvc.GetRedemptions(merchant.ID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get redemptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": redemptions, "total": total})
}

// GetAdjustments returns a merchant's manual adjustment history
func (h *StatsHandler) GetAdjustments(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	adjustments, total, err := h.statsSvc.GetAdjustments(merchant.ID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get adjustments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments, "total": total})
}

// GetDailyVisits returns the rolled-up daily visit counts
func (h *StatsHandler) GetDailyVisits(c *gin.Context) {
	merchant, ok := requireMerchantOwner(c, h.db)
	if !ok {
		return
	}

	rows, err := h.statsSvc.GetDailyVisitStats(merchant.ID, c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get daily stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_visits": rows})
}
