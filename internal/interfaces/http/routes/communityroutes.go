package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers"
	"github.com/tribe-inc/tribe/internal/interfaces/http/middleware"
)

// CommunityRouteConfig holds dependencies for community and referral routes.
type CommunityRouteConfig struct {
	FeatureHandler  *handlers.FeatureHandler
	ReferralHandler *handlers.ReferralHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// SetupCommunityRoutes configures feature access and referral routes.
func SetupCommunityRoutes(engine *gin.Engine, cfg *CommunityRouteConfig) {
	communities := engine.Group("/communities")
	communities.Use(cfg.AuthMiddleware.RequireAuth())
	{
		communities.GET("/:id/features", cfg.FeatureHandler.ListFeatures)
		communities.GET("/:id/features/:feature", cfg.FeatureHandler.HasFeature)
	}

	referrals := engine.Group("/referrals")
	referrals.Use(cfg.AuthMiddleware.RequireAuth())
	{
		referrals.GET("/discount", cfg.ReferralHandler.GetDiscount)
	}
}
