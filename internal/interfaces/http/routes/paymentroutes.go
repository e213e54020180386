package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers"
	"github.com/tribe-inc/tribe/internal/interfaces/http/middleware"
)

// PaymentRouteConfig holds dependencies for payment routes.
type PaymentRouteConfig struct {
	PaymentHandler *handlers.PaymentHandler
	WebhookHandler *handlers.WebhookHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.UserRateLimitMiddleware
}

// SetupPaymentRoutes configures payment routes.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	payments := engine.Group("/payments")
	{
		payments.POST("/notifications", cfg.PaymentHandler.HandleNotification)

		paymentsProtected := payments.Group("")
		paymentsProtected.Use(cfg.AuthMiddleware.RequireAuth())
		{
			paymentsProtected.POST("/subscription", cfg.RateLimiter.Limit(), cfg.PaymentHandler.CreateSubscriptionPayment)
			paymentsProtected.POST("/portal", cfg.RateLimiter.Limit(), cfg.PaymentHandler.CreatePortalPayment)
			paymentsProtected.GET("/transactions/:id", cfg.PaymentHandler.GetTransaction)
		}
	}

	webhooks := engine.Group("/webhooks")
	{
		webhooks.POST("/tribute", cfg.WebhookHandler.HandleTribute)
	}
}
