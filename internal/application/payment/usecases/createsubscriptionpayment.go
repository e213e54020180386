package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/id"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

type CreateSubscriptionPaymentCommand struct {
	UserID             string
	CommunityID        string
	SubscriptionTierID string
	ReturnURL          string
}

type CreateSubscriptionPaymentUseCase struct {
	communityRepo community.Repository
	checkout      checkout
	logger        logger.Interface
	now           func() time.Time
}

func NewCreateSubscriptionPaymentUseCase(
	transactionRepo transaction.Repository,
	communityRepo community.Repository,
	processor paymentgateway.PaymentProcessor,
	frontendBaseURL string,
	processorTimeout time.Duration,
	logger logger.Interface,
) *CreateSubscriptionPaymentUseCase {
	return &CreateSubscriptionPaymentUseCase{
		communityRepo: communityRepo,
		checkout: checkout{
			transactionRepo: transactionRepo,
			processor:       processor,
			frontendBaseURL: frontendBaseURL,
			timeout:         processorTimeout,
			logger:          logger,
		},
		logger: logger,
		now:    biztime.NowUTC,
	}
}

// SetMetrics sets the payment metrics (optional dependency injection)
func (uc *CreateSubscriptionPaymentUseCase) SetMetrics(metrics Metrics) {
	uc.checkout.metrics = metrics
}

func (uc *CreateSubscriptionPaymentUseCase) Execute(ctx context.Context, cmd CreateSubscriptionPaymentCommand) (*CreatePaymentResult, error) {
	if cmd.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("Authentication required")
	}
	if cmd.CommunityID == "" || cmd.SubscriptionTierID == "" {
		return nil, apperrors.NewValidationError("community_id and subscription_tier_id are required")
	}

	tier, err := uc.communityRepo.GetTier(ctx, cmd.SubscriptionTierID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription tier", "tier_id", cmd.SubscriptionTierID, "error", err)
		return nil, fmt.Errorf("failed to get subscription tier: %w", err)
	}
	if tier == nil {
		return nil, apperrors.NewNotFoundError("Subscription tier not found")
	}
	if !tier.BelongsTo(cmd.CommunityID) {
		return nil, apperrors.NewValidationError("Subscription tier does not belong to this community")
	}

	if err := tier.CheckPurchasable(); err != nil {
		switch {
		case errors.Is(err, community.ErrTierInactive):
			return nil, apperrors.NewTierInactiveError("Subscription tier is not active")
		case errors.Is(err, community.ErrTierNotModerated):
			return nil, apperrors.NewTierNotModeratedError("Subscription tier is pending moderation")
		default:
			return nil, err
		}
	}

	comm, err := uc.communityRepo.GetByID(ctx, cmd.CommunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if comm == nil {
		return nil, apperrors.NewNotFoundError("Community not found")
	}

	amount := vo.NewMoney(tier.MonthlyPrice(), tier.Currency())
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("Subscription tier has no payable monthly price")
	}

	txID := id.NewTransactionID()
	communityID := comm.ID
	tierID := tier.ID()
	tx, err := transaction.NewPending(transaction.NewPendingParams{
		ID:                 txID,
		UserID:             cmd.UserID,
		CommunityID:        &communityID,
		SubscriptionTierID: &tierID,
		Amount:             amount,
		Provider:           vo.ProviderYooKassa,
		IdempotencyKey:     id.IdempotencyKey(uc.now(), cmd.UserID, communityID, tierID),
		Metadata: map[string]any{
			transaction.MetaTransactionID:      txID,
			transaction.MetaUserID:             cmd.UserID,
			transaction.MetaCommunityID:        communityID,
			transaction.MetaSubscriptionTierID: tierID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	if err := uc.checkout.transactionRepo.Create(ctx, tx); err != nil {
		uc.logger.Errorw("failed to create pending transaction",
			"user_id", cmd.UserID,
			"tier_id", tierID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	uc.logger.Infow("pending subscription transaction created",
		"transaction_id", txID,
		"user_id", cmd.UserID,
		"community_id", communityID,
		"tier_id", tierID,
		"amount", amount.String(),
	)
	if uc.checkout.metrics != nil {
		uc.checkout.metrics.PaymentInitiated(KindSubscription)
	}

	return uc.checkout.start(ctx, tx,
		fmt.Sprintf("%s: %s", comm.Name, tier.Name()),
		cmd.ReturnURL,
		map[string]string{
			transaction.MetaTransactionID:      txID,
			transaction.MetaUserID:             cmd.UserID,
			transaction.MetaCommunityID:        communityID,
			transaction.MetaSubscriptionTierID: tierID,
		},
	)
}
