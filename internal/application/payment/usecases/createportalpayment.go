package usecases

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/portal"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/referral"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/id"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

type CreatePortalPaymentCommand struct {
	UserID    string
	PlanID    string
	ReturnURL string
}

// CreatePortalPaymentUseCase starts a platform-wide plan purchase. Free plans
// are applied immediately; paid plans get the buyer's referral discount.
type CreatePortalPaymentUseCase struct {
	planRepo     portal.Repository
	profileRepo  profile.Repository
	referralRepo referral.Repository
	checkout     checkout
	logger       logger.Interface
	now          func() time.Time
}

func NewCreatePortalPaymentUseCase(
	transactionRepo transaction.Repository,
	planRepo portal.Repository,
	profileRepo profile.Repository,
	referralRepo referral.Repository,
	processor paymentgateway.PaymentProcessor,
	frontendBaseURL string,
	processorTimeout time.Duration,
	logger logger.Interface,
) *CreatePortalPaymentUseCase {
	return &CreatePortalPaymentUseCase{
		planRepo:     planRepo,
		profileRepo:  profileRepo,
		referralRepo: referralRepo,
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
func (uc *CreatePortalPaymentUseCase) SetMetrics(metrics Metrics) {
	uc.checkout.metrics = metrics
}

func (uc *CreatePortalPaymentUseCase) Execute(ctx context.Context, cmd CreatePortalPaymentCommand) (*CreatePaymentResult, error) {
	if cmd.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("Authentication required")
	}
	if cmd.PlanID == "" {
		return nil, apperrors.NewValidationError("plan_id is required")
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portal plan: %w", err)
	}
	if plan == nil {
		return nil, apperrors.NewNotFoundError("Portal plan not found")
	}
	if !plan.IsActive {
		return nil, apperrors.NewValidationError("Portal plan is not active")
	}

	if plan.IsFree() {
		return uc.activateFree(ctx, cmd.UserID, plan)
	}

	stats, err := uc.referralRepo.ListByReferrer(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral stats: %w", err)
	}
	discount := referral.Summarize(stats).DiscountPercent
	amount := vo.NewMoney(plan.Price, plan.Currency).ApplyDiscount(discount)

	txID := id.NewTransactionID()
	discountStr := strconv.Itoa(discount)
	tx, err := transaction.NewPending(transaction.NewPendingParams{
		ID:             txID,
		UserID:         cmd.UserID,
		Amount:         amount,
		Provider:       vo.ProviderYooKassa,
		IdempotencyKey: id.IdempotencyKey(uc.now(), cmd.UserID, "portal", plan.ID),
		Metadata: map[string]any{
			transaction.MetaTransactionID:   txID,
			transaction.MetaUserID:          cmd.UserID,
			transaction.MetaPortalPlanID:    plan.ID,
			transaction.MetaDiscountPercent: discount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	if err := uc.checkout.transactionRepo.Create(ctx, tx); err != nil {
		uc.logger.Errorw("failed to create pending portal transaction",
			"user_id", cmd.UserID,
			"plan_id", plan.ID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	uc.logger.Infow("pending portal transaction created",
		"transaction_id", txID,
		"user_id", cmd.UserID,
		"plan_id", plan.ID,
		"discount_percent", discount,
		"amount", amount.String(),
	)
	if uc.checkout.metrics != nil {
		uc.checkout.metrics.PaymentInitiated(KindPortal)
	}

	return uc.checkout.start(ctx, tx,
		"Portal plan: "+plan.Name,
		cmd.ReturnURL,
		map[string]string{
			transaction.MetaTransactionID:   txID,
			transaction.MetaUserID:          cmd.UserID,
			transaction.MetaPortalPlanID:    plan.ID,
			transaction.MetaDiscountPercent: discountStr,
		},
	)
}

func (uc *CreatePortalPaymentUseCase) activateFree(ctx context.Context, userID string, plan *portal.Plan) (*CreatePaymentResult, error) {
	ok, err := uc.profileRepo.SetPortalPlan(ctx, userID, plan.ID)
	if err != nil {
		uc.logger.Errorw("failed to activate free portal plan", "user_id", userID, "plan_id", plan.ID, "error", err)
		return nil, fmt.Errorf("failed to set portal plan: %w", err)
	}
	if !ok {
		return nil, apperrors.NewNotFoundError("Profile not found")
	}

	uc.logger.Infow("free portal plan activated", "user_id", userID, "plan_id", plan.ID)
	if uc.checkout.metrics != nil {
		uc.checkout.metrics.PaymentInitiated(KindPortalFree)
	}
	return &CreatePaymentResult{Activated: true}, nil
}
