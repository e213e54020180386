package http

import (
	entitlementUsecases "github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	referralUsecases "github.com/tribe-inc/tribe/internal/application/referral/usecases"
)

// allUseCases holds the use cases shared between the init sections.
type allUseCases struct {
	// Payment
	createSubscriptionPaymentUC   *paymentUsecases.CreateSubscriptionPaymentUseCase
	createPortalPaymentUC         *paymentUsecases.CreatePortalPaymentUseCase
	getTransactionStatusUC        *paymentUsecases.GetTransactionStatusUseCase
	settleWebhookPaymentUC        *paymentUsecases.SettleWebhookPaymentUseCase
	handleProcessorNotificationUC *paymentUsecases.HandleProcessorNotificationUseCase
	expirePendingTransactionsUC   *paymentUsecases.ExpirePendingTransactionsUseCase

	// Entitlement
	entitlementResolver *entitlementUsecases.Resolver
	hasFeatureUC        *entitlementUsecases.HasFeatureUseCase
	listFeaturesUC      *entitlementUsecases.ListFeaturesUseCase

	// Referral
	computeDiscountUC *referralUsecases.ComputeDiscountUseCase
}
