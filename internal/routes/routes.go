package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/stampeo/backend/internal/handlers"
	"github.com/stampeo/backend/internal/middleware"
	"github.com/stampeo/backend/internal/services/notify"
	"gorm.io/gorm"
)

// SetupRoutes registers all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, notifier *notify.Notifier) {
	authHandler := handlers.NewAuthHandler(db)
	merchantHandler := handlers.NewMerchantHandler(db)
	checkInHandler := handlers.NewCheckInHandler(db, notifier)
	cardHandler := handlers.NewCardHandler(db)
	referralHandler := handlers.NewReferralHandler(db, notifier)
	statsHandler := handlers.NewStatsHandler(db)

	api := router.Group("/api")

	// Public endpoints are customer-facing (QR flows, referral landing
	// pages) and carry no account, so they get a per-IP rate limit
	// instead of auth.
	public := api.Group("")
	public.Use(middleware.RateLimitMiddleware(middleware.NewTokenBucketPolicy(5, 10)))
	{
		public.POST("/checkin/:slug", checkInHandler.CheckIn)
		public.GET("/referrals/resolve/:code", referralHandler.Resolve)
		public.POST("/referrals/register", referralHandler.Register)
		public.POST("/vouchers/:id/use", referralHandler.UseVoucher)
		public.GET("/customers/:id/vouchers", referralHandler.ListVouchers)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/merchants", merchantHandler.CreateMerchant)
		protected.GET("/merchants/:id/settings", merchantHandler.GetSettings)
		protected.PUT("/merchants/:id/settings", merchantHandler.UpdateSettings)

		protected.GET("/cards/:id/state", cardHandler.GetState)
		protected.POST("/cards/:id/adjust", cardHandler.Adjust)
		protected.POST("/cards/:id/redeem", cardHandler.Redeem)

		protected.GET("/merchants/:id/stats/visits", statsHandler.GetVisits)
		protected.GET("/merchants/:id/stats/redemptions", statsHandler.GetRedemptions)
		protected.GET("/merchants/:id/stats/adjustments", statsHandler.GetAdjustments)
		protected.GET("/merchants/:id/stats/daily-visits", statsHandler.GetDailyVisits)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
