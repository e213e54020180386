package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/id"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// Webhook outcomes. Every outcome is acknowledged with 200.
const (
	WebhookSettled  = "settled"
	WebhookReplayed = "replayed"
	WebhookCanceled = "canceled"
	WebhookIgnored  = "ignored"
)

type SettleWebhookPaymentCommand struct {
	// RawBody is the verbatim request body whose signature was already verified.
	RawBody []byte
}

type SettleWebhookPaymentResult struct {
	Outcome       string
	TransactionID string
}

// SettleWebhookPaymentUseCase applies a signed provider event to the ledger.
type SettleWebhookPaymentUseCase struct {
	settlementEffects
	transactionRepo transaction.Repository
	membershipRepo  membership.Repository
	communityRepo   community.Repository
	profileRepo     profile.Repository
	txRunner        TransactionRunner
	now             func() time.Time
}

func NewSettleWebhookPaymentUseCase(
	transactionRepo transaction.Repository,
	membershipRepo membership.Repository,
	communityRepo community.Repository,
	profileRepo profile.Repository,
	txRunner TransactionRunner,
	logger logger.Interface,
) *SettleWebhookPaymentUseCase {
	return &SettleWebhookPaymentUseCase{
		settlementEffects: settlementEffects{logger: logger},
		transactionRepo:   transactionRepo,
		membershipRepo:    membershipRepo,
		communityRepo:     communityRepo,
		profileRepo:       profileRepo,
		txRunner:          txRunner,
		now:               biztime.NowUTC,
	}
}

type webhookTarget struct {
	profile   *profile.Profile
	tier      *community.Tier
	community *community.Community
}

func (uc *SettleWebhookPaymentUseCase) Execute(ctx context.Context, cmd SettleWebhookPaymentCommand) (*SettleWebhookPaymentResult, error) {
	event, err := ParseWebhookEvent(cmd.RawBody)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid webhook payload", err.Error())
	}

	switch {
	case event.Name == EventCancelledSubscription:
		return uc.cancel(ctx, event)
	case event.HasProduct():
		return uc.settle(ctx, event, cmd.RawBody)
	default:
		uc.logger.Infow("webhook event acknowledged without action", "event", event.Name)
		return &SettleWebhookPaymentResult{Outcome: WebhookIgnored}, nil
	}
}

func (uc *SettleWebhookPaymentUseCase) settle(ctx context.Context, event *WebhookEvent, raw []byte) (*SettleWebhookPaymentResult, error) {
	target, err := uc.resolveTarget(ctx, event)
	if err != nil {
		return nil, err
	}

	dedupeKey := event.DedupeKey()
	existing, err := uc.transactionRepo.GetByProviderPaymentID(ctx, vo.ProviderTribute, dedupeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up webhook transaction: %w", err)
	}
	if existing != nil {
		uc.logger.Infow("webhook replay ignored",
			"event", event.Name,
			"transaction_id", existing.ID(),
		)
		uc.replayed()
		return &SettleWebhookPaymentResult{Outcome: WebhookReplayed, TransactionID: existing.ID()}, nil
	}

	userID := target.profile.ID
	communityID := target.community.ID
	tierID := target.tier.ID()

	tx, err := transaction.NewSettled(transaction.NewSettledParams{
		ID:                 id.NewTransactionID(),
		UserID:             userID,
		CommunityID:        communityID,
		SubscriptionTierID: tierID,
		Amount:             vo.NewMoney(event.Payload.Amount, event.Payload.Currency),
		Provider:           vo.ProviderTribute,
		ProviderPaymentID:  dedupeKey,
		Metadata: map[string]any{
			transaction.MetaWebhookEvent:   event.Name,
			transaction.MetaWebhookPayload: json.RawMessage(raw),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build settled transaction: %w", err)
	}

	m, err := membership.NewActivation(membership.ActivationParams{
		UserID:                 userID,
		CommunityID:            communityID,
		TierID:                 tierID,
		StartedAt:              uc.now(),
		ExternalSubscriptionID: event.Payload.SubscriptionID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build membership: %w", err)
	}

	err = uc.txRunner.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.transactionRepo.Create(txCtx, tx); err != nil {
			return err
		}
		if err := uc.membershipRepo.Upsert(txCtx, m); err != nil {
			return fmt.Errorf("failed to upsert membership: %w", err)
		}
		return nil
	})
	if errors.Is(err, transaction.ErrDuplicateProviderPayment) {
		// a concurrent delivery of the same event won the insert
		uc.logger.Infow("webhook replay absorbed by unique index", "event", event.Name)
		uc.replayed()
		return &SettleWebhookPaymentResult{Outcome: WebhookReplayed}, nil
	}
	if err != nil {
		uc.logger.Errorw("webhook settlement failed",
			"event", event.Name,
			"user_id", userID,
			"community_id", communityID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to settle webhook payment: %w", err)
	}

	uc.logger.Infow("webhook payment settled",
		"transaction_id", tx.ID(),
		"event", event.Name,
		"user_id", userID,
		"community_id", communityID,
		"tier_id", tierID,
	)

	uc.membershipChanged(ctx, userID, communityID)
	uc.settled(SourceWebhook)
	uc.notifyActivated(MembershipActivatedNotice{
		TelegramUserID: event.Payload.TelegramUserID,
		CommunityName:  target.community.Name,
		TierName:       target.tier.Name(),
		Amount:         tx.Amount().AmountMinor(),
		Currency:       tx.Amount().Currency(),
		ExpiresAt:      m.ExpiresAt(),
	})

	return &SettleWebhookPaymentResult{Outcome: WebhookSettled, TransactionID: tx.ID()}, nil
}

// cancel marks the membership canceled. expires_at is kept, so the compound
// activity rule turns access off immediately.
func (uc *SettleWebhookPaymentUseCase) cancel(ctx context.Context, event *WebhookEvent) (*SettleWebhookPaymentResult, error) {
	target, err := uc.resolveTarget(ctx, event)
	if err != nil {
		return nil, err
	}

	found, err := uc.membershipRepo.UpdateStatus(ctx, target.profile.ID, target.community.ID, membership.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel membership: %w", err)
	}
	if !found {
		uc.logger.Warnw("cancellation for unknown membership ignored",
			"user_id", target.profile.ID,
			"community_id", target.community.ID,
		)
		return &SettleWebhookPaymentResult{Outcome: WebhookIgnored}, nil
	}

	uc.logger.Infow("membership canceled by webhook",
		"user_id", target.profile.ID,
		"community_id", target.community.ID,
	)
	uc.membershipChanged(ctx, target.profile.ID, target.community.ID)
	return &SettleWebhookPaymentResult{Outcome: WebhookCanceled}, nil
}

func (uc *SettleWebhookPaymentUseCase) resolveTarget(ctx context.Context, event *WebhookEvent) (*webhookTarget, error) {
	if err := webhookValidator.Struct(settlementTarget{
		ProductID:      event.Payload.ProductID.String(),
		TelegramUserID: event.Payload.TelegramUserID,
	}); err != nil {
		return nil, apperrors.NewValidationError("Webhook payload does not identify a tier and user", err.Error())
	}
	externalID, _ := TierExternalID(event.Payload.ProductID.String())

	p, err := uc.profileRepo.GetByTelegramUserID(ctx, event.Payload.TelegramUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p == nil {
		return nil, apperrors.NewBadRequestError("Unknown user")
	}

	tier, err := uc.communityRepo.GetTierByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription tier: %w", err)
	}
	if tier == nil {
		return nil, apperrors.NewNotFoundError("Subscription tier not found")
	}

	comm, err := uc.communityRepo.GetByID(ctx, tier.CommunityID())
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if comm == nil {
		return nil, apperrors.NewNotFoundError("Community not found")
	}

	return &webhookTarget{profile: p, tier: tier, community: comm}, nil
}
