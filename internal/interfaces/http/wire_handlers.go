package http

import (
	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers"
)

// allHandlers holds all HTTP handler instances.
type allHandlers struct {
	paymentHandler  *handlers.PaymentHandler
	webhookHandler  *handlers.WebhookHandler
	featureHandler  *handlers.FeatureHandler
	referralHandler *handlers.ReferralHandler
	healthHandler   *handlers.HealthHandler
}
