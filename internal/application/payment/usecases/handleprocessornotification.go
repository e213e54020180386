package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// Notification outcomes.
const (
	NotificationSettled   = "settled"
	NotificationFailed    = "failed"
	NotificationUnchanged = "unchanged"
)

// HandleProcessorNotificationCommand carries the untrusted notification
// fields. Only PaymentID is used to fetch the authoritative state.
type HandleProcessorNotificationCommand struct {
	PaymentID     string
	TransactionID string
}

type HandleProcessorNotificationResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Outcome       string `json:"outcome"`
}

// HandleProcessorNotificationUseCase settles a processor-initiated payment
// after confirming its state with the processor.
type HandleProcessorNotificationUseCase struct {
	settlementEffects
	transactionRepo transaction.Repository
	membershipRepo  membership.Repository
	communityRepo   community.Repository
	profileRepo     profile.Repository
	processor       paymentgateway.PaymentProcessor
	txRunner        TransactionRunner
	timeout         time.Duration
	now             func() time.Time
}

func NewHandleProcessorNotificationUseCase(
	transactionRepo transaction.Repository,
	membershipRepo membership.Repository,
	communityRepo community.Repository,
	profileRepo profile.Repository,
	processor paymentgateway.PaymentProcessor,
	txRunner TransactionRunner,
	processorTimeout time.Duration,
	logger logger.Interface,
) *HandleProcessorNotificationUseCase {
	return &HandleProcessorNotificationUseCase{
		settlementEffects: settlementEffects{logger: logger},
		transactionRepo:   transactionRepo,
		membershipRepo:    membershipRepo,
		communityRepo:     communityRepo,
		profileRepo:       profileRepo,
		processor:         processor,
		txRunner:          txRunner,
		timeout:           processorTimeout,
		now:               biztime.NowUTC,
	}
}

func (uc *HandleProcessorNotificationUseCase) Execute(ctx context.Context, cmd HandleProcessorNotificationCommand) (*HandleProcessorNotificationResult, error) {
	if cmd.PaymentID == "" {
		return nil, apperrors.NewValidationError("payment id is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	info, err := uc.processor.GetPayment(fetchCtx, cmd.PaymentID)
	cancel()
	if err != nil {
		uc.logger.Errorw("failed to confirm payment with processor",
			"payment_id", cmd.PaymentID,
			"error", err,
		)
		return nil, apperrors.NewUpstreamError("Failed to confirm payment with provider")
	}

	tx, err := uc.findTransaction(ctx, info)
	if err != nil {
		return nil, err
	}
	if tx.ProviderPaymentID() == nil || *tx.ProviderPaymentID() != info.PaymentID {
		uc.logger.Warnw("notification payment does not match transaction",
			"transaction_id", tx.ID(),
			"payment_id", info.PaymentID,
		)
		return nil, apperrors.NewValidationError("Payment does not match transaction")
	}

	result := &HandleProcessorNotificationResult{
		TransactionID: tx.ID(),
		Status:        tx.Status().String(),
		Outcome:       NotificationUnchanged,
	}
	if tx.Status().IsTerminal() {
		uc.logger.Debugw("notification for terminal transaction ignored",
			"transaction_id", tx.ID(),
			"status", tx.Status(),
		)
		return result, nil
	}

	switch info.Status {
	case paymentgateway.StatusSucceeded:
		if info.Amount != tx.Amount().AmountMinor() || !sameCurrency(info.Currency, tx.Amount().Currency()) {
			uc.logger.Errorw("processor amount differs from transaction",
				"transaction_id", tx.ID(),
				"expected", tx.Amount().String(),
				"actual_minor", info.Amount,
				"actual_currency", info.Currency,
			)
			return uc.fail(ctx, tx, transaction.FailureAmountMismatch)
		}
		return uc.markPaid(ctx, tx)
	case paymentgateway.StatusCanceled:
		return uc.fail(ctx, tx, transaction.FailureCanceled)
	default:
		return result, nil
	}
}

func (uc *HandleProcessorNotificationUseCase) findTransaction(ctx context.Context, info *paymentgateway.PaymentInfo) (*transaction.Transaction, error) {
	var (
		tx  *transaction.Transaction
		err error
	)
	if txID := info.Metadata[transaction.MetaTransactionID]; txID != "" {
		tx, err = uc.transactionRepo.GetByID(ctx, txID)
	} else {
		tx, err = uc.transactionRepo.GetByProviderPaymentID(ctx, vo.ProviderYooKassa, info.PaymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, apperrors.NewNotFoundError("Transaction not found")
	}
	return tx, nil
}

func (uc *HandleProcessorNotificationUseCase) markPaid(ctx context.Context, tx *transaction.Transaction) (*HandleProcessorNotificationResult, error) {
	if err := tx.MarkAsPaid(); err != nil {
		return nil, fmt.Errorf("failed to mark transaction as paid: %w", err)
	}

	var activated *membership.Membership
	err := uc.txRunner.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.transactionRepo.Update(txCtx, tx); err != nil {
			return err
		}

		if tx.IsPortal() {
			planID := tx.PortalPlanID()
			if planID == "" {
				return fmt.Errorf("portal transaction %s has no plan", tx.ID())
			}
			ok, err := uc.profileRepo.SetPortalPlan(txCtx, tx.UserID(), planID)
			if err != nil {
				return fmt.Errorf("failed to set portal plan: %w", err)
			}
			if !ok {
				return fmt.Errorf("profile %s not found", tx.UserID())
			}
			return nil
		}

		m, err := membership.NewActivation(membership.ActivationParams{
			UserID:      tx.UserID(),
			CommunityID: *tx.CommunityID(),
			TierID:      *tx.SubscriptionTierID(),
			StartedAt:   uc.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to build membership: %w", err)
		}
		if err := uc.membershipRepo.Upsert(txCtx, m); err != nil {
			return fmt.Errorf("failed to upsert membership: %w", err)
		}
		activated = m
		return nil
	})
	if errors.Is(err, transaction.ErrAlreadyTerminal) {
		// settled concurrently by another notification
		return &HandleProcessorNotificationResult{
			TransactionID: tx.ID(),
			Status:        tx.Status().String(),
			Outcome:       NotificationUnchanged,
		}, nil
	}
	if err != nil {
		uc.logger.Errorw("failed to settle processor payment",
			"transaction_id", tx.ID(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to settle payment: %w", err)
	}

	uc.logger.Infow("processor payment settled",
		"transaction_id", tx.ID(),
		"user_id", tx.UserID(),
		"portal", tx.IsPortal(),
	)
	uc.settled(SourceNotification)
	if activated != nil {
		uc.membershipChanged(ctx, activated.UserID(), activated.CommunityID())
		uc.notifyMember(ctx, tx, activated)
	}

	return &HandleProcessorNotificationResult{
		TransactionID: tx.ID(),
		Status:        tx.Status().String(),
		Outcome:       NotificationSettled,
	}, nil
}

func (uc *HandleProcessorNotificationUseCase) fail(ctx context.Context, tx *transaction.Transaction, reason string) (*HandleProcessorNotificationResult, error) {
	if err := tx.MarkAsFailed(reason); err != nil {
		return nil, fmt.Errorf("failed to mark transaction as failed: %w", err)
	}
	if err := uc.transactionRepo.Update(ctx, tx); err != nil {
		if errors.Is(err, transaction.ErrAlreadyTerminal) {
			return &HandleProcessorNotificationResult{TransactionID: tx.ID(), Status: tx.Status().String(), Outcome: NotificationUnchanged}, nil
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	uc.logger.Infow("processor payment failed", "transaction_id", tx.ID(), "reason", reason)
	uc.failed(reason)
	return &HandleProcessorNotificationResult{
		TransactionID: tx.ID(),
		Status:        tx.Status().String(),
		Outcome:       NotificationFailed,
	}, nil
}

// notifyMember looks up display data for the settlement message. Lookup
// failures only skip the message.
func (uc *HandleProcessorNotificationUseCase) notifyMember(ctx context.Context, tx *transaction.Transaction, m *membership.Membership) {
	if uc.notifier == nil {
		return
	}
	p, err := uc.profileRepo.GetByID(ctx, tx.UserID())
	if err != nil || p == nil || p.TelegramUserID == nil {
		return
	}
	notice := MembershipActivatedNotice{
		TelegramUserID: *p.TelegramUserID,
		Amount:         tx.Amount().AmountMinor(),
		Currency:       tx.Amount().Currency(),
		ExpiresAt:      m.ExpiresAt(),
	}
	if comm, err := uc.communityRepo.GetByID(ctx, m.CommunityID()); err == nil && comm != nil {
		notice.CommunityName = comm.Name
	}
	if tier, err := uc.communityRepo.GetTier(ctx, m.TierID()); err == nil && tier != nil {
		notice.TierName = tier.Name()
	}
	uc.notifyActivated(notice)
}

func sameCurrency(a, b string) bool {
	return vo.NewMoney(0, a).Currency() == vo.NewMoney(0, b).Currency()
}
