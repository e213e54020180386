package usecases

import (
	"context"
	"time"
)

// TransactionRunner opens a database unit of work. Repositories called with
// the ctx passed to fn join it.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EntitlementCacheInvalidator drops cached entitlements after a membership write.
type EntitlementCacheInvalidator interface {
	Invalidate(ctx context.Context, userID, communityID string) error
}

// Metrics records payment flow counters.
type Metrics interface {
	PaymentInitiated(kind string)
	PaymentSettled(source string)
	PaymentFailed(reason string)
	WebhookReplayed()
}

// SettlementNotifier tells the paying user their membership is active.
type SettlementNotifier interface {
	NotifyMembershipActivated(ctx context.Context, notice MembershipActivatedNotice) error
}

// MembershipActivatedNotice contains data for the settlement message.
type MembershipActivatedNotice struct {
	TelegramUserID int64
	CommunityName  string
	TierName       string
	Amount         int64
	Currency       string
	ExpiresAt      *time.Time
}

// Payment kinds and settlement sources used as metric labels.
const (
	KindSubscription = "subscription"
	KindPortal       = "portal"
	KindPortalFree   = "portal_free"

	SourceWebhook      = "webhook"
	SourceNotification = "notification"
)
