package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/domain/transaction"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const expireBatchSize = 100

// pendingReconciler settles a transaction from the processor's current
// view of its payment. HandleProcessorNotificationUseCase satisfies it.
type pendingReconciler interface {
	Execute(ctx context.Context, cmd HandleProcessorNotificationCommand) (*HandleProcessorNotificationResult, error)
}

// ExpirePendingTransactionsUseCase fails pending transactions the user
// abandoned at the hosted checkout. A transaction that already has a
// processor payment is only failed when the processor reports it canceled;
// a captured one is settled instead.
type ExpirePendingTransactionsUseCase struct {
	transactionRepo transaction.Repository
	reconciler      pendingReconciler
	pendingTTL      time.Duration
	metrics         Metrics
	logger          logger.Interface
	now             func() time.Time
}

func NewExpirePendingTransactionsUseCase(
	transactionRepo transaction.Repository,
	reconciler pendingReconciler,
	pendingTTL time.Duration,
	logger logger.Interface,
) *ExpirePendingTransactionsUseCase {
	return &ExpirePendingTransactionsUseCase{
		transactionRepo: transactionRepo,
		reconciler:      reconciler,
		pendingTTL:      pendingTTL,
		logger:          logger,
		now:             biztime.NowUTC,
	}
}

// SetMetrics sets the payment metrics (optional dependency injection)
func (uc *ExpirePendingTransactionsUseCase) SetMetrics(metrics Metrics) {
	uc.metrics = metrics
}

// Execute expires one batch and returns how many transactions were failed.
func (uc *ExpirePendingTransactionsUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := uc.now().Add(-uc.pendingTTL)

	pending, err := uc.transactionRepo.ListPendingCreatedBefore(ctx, cutoff, expireBatchSize)
	if err != nil {
		uc.logger.Errorw("failed to list stale pending transactions", "error", err)
		return 0, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	if len(pending) == 0 {
		uc.logger.Debugw("no stale pending transactions found")
		return 0, nil
	}

	expired, settled := 0, 0
	for _, tx := range pending {
		if tx.ProviderPaymentID() != nil {
			switch uc.reconcile(ctx, tx) {
			case NotificationSettled:
				settled++
			case NotificationFailed:
				expired++
			}
			continue
		}

		if err := tx.MarkAsFailed(transaction.FailureExpired); err != nil {
			continue
		}
		if err := uc.transactionRepo.Update(ctx, tx); err != nil {
			if errors.Is(err, transaction.ErrAlreadyTerminal) {
				// settled while we were scanning
				continue
			}
			uc.logger.Errorw("failed to expire transaction",
				"transaction_id", tx.ID(),
				"error", err,
			)
			continue
		}
		expired++
		if uc.metrics != nil {
			uc.metrics.PaymentFailed(transaction.FailureExpired)
		}
	}

	if expired > 0 || settled > 0 {
		uc.logger.Infow("processed stale pending transactions",
			"failed", expired,
			"settled", settled,
			"cutoff", cutoff,
		)
	}

	return expired, nil
}

// reconcile asks the processor about a stale transaction and returns the
// settlement outcome. Payments still open at the processor stay pending
// until a later pass or notification.
func (uc *ExpirePendingTransactionsUseCase) reconcile(ctx context.Context, tx *transaction.Transaction) string {
	result, err := uc.reconciler.Execute(ctx, HandleProcessorNotificationCommand{
		PaymentID:     *tx.ProviderPaymentID(),
		TransactionID: tx.ID(),
	})
	if err != nil {
		uc.logger.Warnw("failed to reconcile stale transaction with processor",
			"transaction_id", tx.ID(),
			"payment_id", *tx.ProviderPaymentID(),
			"error", err,
		)
		return NotificationUnchanged
	}
	if result.Outcome == NotificationUnchanged {
		uc.logger.Debugw("stale transaction still open at processor",
			"transaction_id", tx.ID(),
			"status", result.Status,
		)
	}
	return result.Outcome
}
