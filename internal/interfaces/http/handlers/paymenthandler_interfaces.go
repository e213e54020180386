package handlers

import (
	"context"

	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
)

// Use case interfaces for PaymentHandler

type createSubscriptionPaymentUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.CreateSubscriptionPaymentCommand) (*paymentUsecases.CreatePaymentResult, error)
}

type createPortalPaymentUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.CreatePortalPaymentCommand) (*paymentUsecases.CreatePaymentResult, error)
}

type getTransactionStatusUseCase interface {
	Execute(ctx context.Context, query paymentUsecases.GetTransactionStatusQuery) (*paymentUsecases.TransactionStatusDTO, error)
}

type handleProcessorNotificationUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.HandleProcessorNotificationCommand) (*paymentUsecases.HandleProcessorNotificationResult, error)
}

type settleWebhookPaymentUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.SettleWebhookPaymentCommand) (*paymentUsecases.SettleWebhookPaymentResult, error)
}
