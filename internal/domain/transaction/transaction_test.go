package transaction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
)

// --- helpers ---

func strPtr(s string) *string { return &s }

func pendingParams() NewPendingParams {
	return NewPendingParams{
		ID:                 "7d1c0a52-0000-4000-8000-000000000001",
		UserID:             "user-1",
		CommunityID:        strPtr("community-1"),
		SubscriptionTierID: strPtr("tier-1"),
		Amount:             vo.NewMoney(50000, "RUB"),
		Provider:           vo.ProviderYooKassa,
		IdempotencyKey:     "idem-1",
		Metadata:           map[string]any{MetaTransactionID: "7d1c0a52-0000-4000-8000-000000000001"},
	}
}

func validPending(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewPending(pendingParams())
	require.NoError(t, err)
	return tx
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewPending_Valid(t *testing.T) {
	tx := validPending(t)

	assert.Equal(t, vo.StatusPending, tx.Status())
	assert.Equal(t, int64(50000), tx.Amount().AmountMinor())
	assert.Nil(t, tx.ProviderPaymentID())
	assert.False(t, tx.IsPortal())
	assert.False(t, tx.CreatedAt().IsZero())
}

func TestNewPending_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *NewPendingParams)
	}{
		{"missing id", func(p *NewPendingParams) { p.ID = "" }},
		{"missing user", func(p *NewPendingParams) { p.UserID = "" }},
		{"missing idempotency key", func(p *NewPendingParams) { p.IdempotencyKey = "" }},
		{"zero amount", func(p *NewPendingParams) { p.Amount = vo.NewMoney(0, "RUB") }},
		{"unknown provider", func(p *NewPendingParams) { p.Provider = "stripe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingParams()
			tt.mutate(&p)
			_, err := NewPending(p)
			assert.Error(t, err)
		})
	}
}

func TestNewPending_CopiesMetadata(t *testing.T) {
	p := pendingParams()
	tx, err := NewPending(p)
	require.NoError(t, err)

	p.Metadata["injected"] = true
	assert.NotContains(t, tx.Metadata(), "injected")

	m := tx.Metadata()
	m["other"] = 1
	assert.NotContains(t, tx.Metadata(), "other")
}

func TestNewSettled(t *testing.T) {
	tx, err := NewSettled(NewSettledParams{
		ID:                 "tx-2",
		UserID:             "user-1",
		CommunityID:        "community-1",
		SubscriptionTierID: "tier-1",
		Amount:             vo.NewMoney(50000, "RUB"),
		Provider:           vo.ProviderTribute,
		ProviderPaymentID:  "new_subscription:2026-01-01T00:00:00Z:42:7_premium",
		Metadata:           map[string]any{MetaWebhookPayload: map[string]any{"name": "new_subscription"}},
	})
	require.NoError(t, err)

	assert.Equal(t, vo.StatusSucceeded, tx.Status())
	require.NotNil(t, tx.ProviderPaymentID())
	assert.Equal(t, "tribute:new_subscription:2026-01-01T00:00:00Z:42:7_premium", tx.IdempotencyKey())
	assert.True(t, tx.HasDerivedIdempotencyKey())
	assert.Contains(t, tx.Metadata(), MetaWebhookPayload)

	_, err = NewSettled(NewSettledParams{ID: "tx-3", UserID: "user-1", Provider: vo.ProviderTribute})
	assert.Error(t, err)
}

// =============================================================================
// State Transition Tests
// =============================================================================

func TestAttachProviderPayment(t *testing.T) {
	tx := validPending(t)

	require.NoError(t, tx.AttachProviderPayment("2d9a8b1c-000f-5000-9000-1b2c3d4e5f60"))
	assert.Equal(t, "2d9a8b1c-000f-5000-9000-1b2c3d4e5f60", *tx.ProviderPaymentID())
	assert.False(t, tx.HasDerivedIdempotencyKey())
	assert.Error(t, tx.AttachProviderPayment(""))

	require.NoError(t, tx.MarkAsFailed(FailureTimeout))
	err := tx.AttachProviderPayment("late")
	assert.True(t, errors.Is(err, ErrAlreadyTerminal))
}

func TestMarkAsPaid(t *testing.T) {
	tx := validPending(t)

	require.NoError(t, tx.MarkAsPaid())
	assert.Equal(t, vo.StatusPaid, tx.Status())

	// idempotent
	require.NoError(t, tx.MarkAsPaid())

	err := tx.MarkAsFailed(FailureCanceled)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Equal(t, vo.StatusPaid, tx.Status())
}

func TestMarkAsFailed(t *testing.T) {
	tx := validPending(t)

	require.NoError(t, tx.MarkAsFailed(FailureProcessorError))
	assert.Equal(t, vo.StatusFailed, tx.Status())
	require.NotNil(t, tx.FailureReason())
	assert.Equal(t, FailureProcessorError, *tx.FailureReason())

	assert.ErrorIs(t, tx.MarkAsFailed(FailureExpired), ErrAlreadyTerminal)
	assert.ErrorIs(t, tx.MarkAsPaid(), ErrAlreadyTerminal)
}

func TestPortalTransaction(t *testing.T) {
	p := pendingParams()
	p.CommunityID = nil
	p.SubscriptionTierID = nil
	p.Metadata = map[string]any{MetaPortalPlanID: "plan-pro"}

	tx, err := NewPending(p)
	require.NoError(t, err)

	assert.True(t, tx.IsPortal())
	assert.Equal(t, "plan-pro", tx.PortalPlanID())
	assert.Equal(t, "", validPending(t).PortalPlanID())
}
