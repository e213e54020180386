package usecases

import (
	"context"
	"time"

	"github.com/tribe-inc/tribe/internal/shared/goroutine"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const notifyTimeout = 30 * time.Second

// settlementEffects holds the optional collaborators run after a settlement
// commits. None of them can fail the settlement.
type settlementEffects struct {
	cache    EntitlementCacheInvalidator
	notifier SettlementNotifier
	metrics  Metrics
	logger   logger.Interface
}

// SetCacheInvalidator sets the entitlement cache (optional dependency injection)
func (e *settlementEffects) SetCacheInvalidator(cache EntitlementCacheInvalidator) {
	e.cache = cache
}

// SetNotifier sets the settlement notifier (optional dependency injection)
func (e *settlementEffects) SetNotifier(notifier SettlementNotifier) {
	e.notifier = notifier
}

// SetMetrics sets the payment metrics (optional dependency injection)
func (e *settlementEffects) SetMetrics(metrics Metrics) {
	e.metrics = metrics
}

func (e *settlementEffects) membershipChanged(ctx context.Context, userID, communityID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, userID, communityID); err != nil {
		e.logger.Warnw("failed to invalidate entitlement cache",
			"user_id", userID,
			"community_id", communityID,
			"error", err,
		)
	}
}

func (e *settlementEffects) settled(source string) {
	if e.metrics != nil {
		e.metrics.PaymentSettled(source)
	}
}

func (e *settlementEffects) failed(reason string) {
	if e.metrics != nil {
		e.metrics.PaymentFailed(reason)
	}
}

func (e *settlementEffects) replayed() {
	if e.metrics != nil {
		e.metrics.WebhookReplayed()
	}
}

func (e *settlementEffects) notifyActivated(notice MembershipActivatedNotice) {
	if e.notifier == nil || notice.TelegramUserID == 0 {
		return
	}
	goroutine.SafeGo(e.logger, "settlement-notify-member", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		return e.notifier.NotifyMembershipActivated(ctx, notice)
	})
}
