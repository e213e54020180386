package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tribe-inc/tribe/internal/interfaces/http/middleware"
	"github.com/tribe-inc/tribe/internal/interfaces/http/routes"
)

// SetupRoutes installs the global middleware chain and registers every route.
func (c *Container) SetupRoutes() {
	engine := c.engine

	engine.HandleMethodNotAllowed = true
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CustomLogger(c.log.Named("http")))
	engine.Use(middleware.Metrics(c.httpMetrics))
	engine.Use(middleware.CORS(c.cfg.Webhook.SignatureHeader))
	engine.Use(middleware.SecurityHeaders())

	engine.NoMethod(middleware.MethodNotAllowed())
	engine.NoRoute(middleware.NotFound())

	engine.GET("/health", c.hdlrs.healthHandler.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	routes.SetupPaymentRoutes(engine, &routes.PaymentRouteConfig{
		PaymentHandler: c.hdlrs.paymentHandler,
		WebhookHandler: c.hdlrs.webhookHandler,
		AuthMiddleware: c.authMiddleware,
		RateLimiter:    c.paymentLimiter,
	})

	routes.SetupCommunityRoutes(engine, &routes.CommunityRouteConfig{
		FeatureHandler:  c.hdlrs.featureHandler,
		ReferralHandler: c.hdlrs.referralHandler,
		AuthMiddleware:  c.authMiddleware,
	})
}
