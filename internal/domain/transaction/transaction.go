package transaction

import (
	"fmt"
	"maps"
	"time"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
)

// Metadata keys written by this service.
const (
	MetaTransactionID      = "transaction_id"
	MetaUserID             = "user_id"
	MetaCommunityID        = "community_id"
	MetaSubscriptionTierID = "subscription_tier_id"
	MetaPortalPlanID       = "portal_plan_id"
	MetaDiscountPercent    = "discount_percent"
	MetaWebhookPayload     = "webhook_payload"
	MetaWebhookEvent       = "webhook_event"
)

// Failure reasons recorded on failed transactions.
const (
	FailureProcessorError = "processor_error"
	FailureTimeout        = "timeout"
	FailureCanceled       = "canceled"
	FailureExpired        = "expired"
	FailureAmountMismatch = "amount_mismatch"
)

// Transaction is one payment attempt. It is mutated from pending to a
// terminal status at most once and never deleted.
type Transaction struct {
	id                string
	userID            string
	communityID       *string
	subscriptionTier  *string
	amount            vo.Money
	status            vo.Status
	provider          vo.Provider
	providerPaymentID *string
	idempotencyKey    string
	failureReason     *string
	metadata          map[string]any
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPendingParams describes a transaction about to be sent to a processor.
// CommunityID and SubscriptionTierID are nil for portal plan payments.
type NewPendingParams struct {
	ID                 string
	UserID             string
	CommunityID        *string
	SubscriptionTierID *string
	Amount             vo.Money
	Provider           vo.Provider
	IdempotencyKey     string
	Metadata           map[string]any
}

func NewPending(p NewPendingParams) (*Transaction, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}
	if p.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if p.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if !p.Provider.IsValid() {
		return nil, fmt.Errorf("invalid provider: %s", p.Provider)
	}

	now := biztime.NowUTC()
	return &Transaction{
		id:               p.ID,
		userID:           p.UserID,
		communityID:      p.CommunityID,
		subscriptionTier: p.SubscriptionTierID,
		amount:           p.Amount,
		status:           vo.StatusPending,
		provider:         p.Provider,
		idempotencyKey:   p.IdempotencyKey,
		metadata:         cloneMetadata(p.Metadata),
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// NewSettledParams describes a payment that was already completed at the
// provider, as reported by a signed webhook.
type NewSettledParams struct {
	ID                 string
	UserID             string
	CommunityID        string
	SubscriptionTierID string
	Amount             vo.Money
	Provider           vo.Provider
	ProviderPaymentID  string
	Metadata           map[string]any
}

func NewSettled(p NewSettledParams) (*Transaction, error) {
	if p.ID == "" || p.UserID == "" {
		return nil, fmt.Errorf("transaction ID and user ID are required")
	}
	if p.ProviderPaymentID == "" {
		return nil, fmt.Errorf("provider payment ID is required")
	}
	if p.Amount.AmountMinor() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}

	now := biztime.NowUTC()
	communityID := p.CommunityID
	tierID := p.SubscriptionTierID
	providerPaymentID := p.ProviderPaymentID
	return &Transaction{
		id:                p.ID,
		userID:            p.UserID,
		communityID:       &communityID,
		subscriptionTier:  &tierID,
		amount:            p.Amount,
		status:            vo.StatusSucceeded,
		provider:          p.Provider,
		providerPaymentID: &providerPaymentID,
		// webhook rows have no processor-side idempotency; the dedupe key doubles as one
		idempotencyKey: derivedIdempotencyKey(p.Provider, providerPaymentID),
		metadata:       cloneMetadata(p.Metadata),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func derivedIdempotencyKey(provider vo.Provider, providerPaymentID string) string {
	return string(provider) + ":" + providerPaymentID
}

// HasDerivedIdempotencyKey reports whether the idempotency key was built from
// (provider, provider payment id). A collision on such a key is a collision
// on the provider payment as well.
func (t *Transaction) HasDerivedIdempotencyKey() bool {
	return t.providerPaymentID != nil && t.idempotencyKey == derivedIdempotencyKey(t.provider, *t.providerPaymentID)
}

// AttachProviderPayment records the processor's payment id on a pending transaction.
func (t *Transaction) AttachProviderPayment(paymentID string) error {
	if !t.status.IsPending() {
		return fmt.Errorf("%w: cannot attach payment to %s transaction", ErrAlreadyTerminal, t.status)
	}
	if paymentID == "" {
		return fmt.Errorf("provider payment ID is required")
	}
	t.providerPaymentID = &paymentID
	t.updatedAt = biztime.NowUTC()
	return nil
}

// MarkAsPaid settles a pending transaction. Marking an already paid
// transaction is a no-op.
func (t *Transaction) MarkAsPaid() error {
	if t.status == vo.StatusPaid {
		return nil
	}
	if !t.status.IsPending() {
		return fmt.Errorf("%w: cannot mark %s transaction as paid", ErrAlreadyTerminal, t.status)
	}
	t.status = vo.StatusPaid
	t.updatedAt = biztime.NowUTC()
	return nil
}

func (t *Transaction) MarkAsFailed(reason string) error {
	if t.status.IsTerminal() {
		return fmt.Errorf("%w: cannot mark %s transaction as failed", ErrAlreadyTerminal, t.status)
	}
	t.status = vo.StatusFailed
	t.failureReason = &reason
	t.updatedAt = biztime.NowUTC()
	return nil
}

// IsPortal reports a platform-wide plan payment (no community target).
func (t *Transaction) IsPortal() bool {
	return t.communityID == nil
}

// PortalPlanID returns the portal plan recorded in metadata, if any.
func (t *Transaction) PortalPlanID() string {
	if v, ok := t.metadata[MetaPortalPlanID].(string); ok {
		return v
	}
	return ""
}

func (t *Transaction) ID() string                  { return t.id }
func (t *Transaction) UserID() string              { return t.userID }
func (t *Transaction) CommunityID() *string        { return t.communityID }
func (t *Transaction) SubscriptionTierID() *string { return t.subscriptionTier }
func (t *Transaction) Amount() vo.Money            { return t.amount }
func (t *Transaction) Status() vo.Status           { return t.status }
func (t *Transaction) Provider() vo.Provider       { return t.provider }
func (t *Transaction) ProviderPaymentID() *string  { return t.providerPaymentID }
func (t *Transaction) IdempotencyKey() string      { return t.idempotencyKey }
func (t *Transaction) FailureReason() *string      { return t.failureReason }
func (t *Transaction) CreatedAt() time.Time        { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time        { return t.updatedAt }

// Metadata returns a copy of the metadata map.
func (t *Transaction) Metadata() map[string]any {
	return cloneMetadata(t.metadata)
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID                 string
	UserID             string
	CommunityID        *string
	SubscriptionTierID *string
	Amount             vo.Money
	Status             vo.Status
	Provider           vo.Provider
	ProviderPaymentID  *string
	IdempotencyKey     string
	FailureReason      *string
	Metadata           map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func Reconstruct(p ReconstructParams) *Transaction {
	return &Transaction{
		id:                p.ID,
		userID:            p.UserID,
		communityID:       p.CommunityID,
		subscriptionTier:  p.SubscriptionTierID,
		amount:            p.Amount,
		status:            p.Status,
		provider:          p.Provider,
		providerPaymentID: p.ProviderPaymentID,
		idempotencyKey:    p.IdempotencyKey,
		failureReason:     p.FailureReason,
		metadata:          cloneMetadata(p.Metadata),
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
