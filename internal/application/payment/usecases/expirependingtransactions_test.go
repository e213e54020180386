package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
)

func agedTransaction(id string, status vo.Status, createdAt time.Time) *transaction.Transaction {
	communityID, tierID := testCommunityID, testTierID
	return transaction.Reconstruct(transaction.ReconstructParams{
		ID:                 id,
		UserID:             testUserID,
		CommunityID:        &communityID,
		SubscriptionTierID: &tierID,
		Amount:             vo.NewMoney(50000, "RUB"),
		Status:             status,
		Provider:           vo.ProviderYooKassa,
		IdempotencyKey:     "key-" + id,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	})
}

func TestExpirePendingTransactions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newNotificationFixture(t)
	repo := f.txRepo
	repo.put(agedTransaction("stale", vo.StatusPending, now.Add(-3*time.Hour)))
	repo.put(agedTransaction("fresh", vo.StatusPending, now.Add(-10*time.Minute)))
	repo.put(agedTransaction("paid", vo.StatusPaid, now.Add(-5*time.Hour)))

	metrics := &recordingMetrics{}
	uc := NewExpirePendingTransactionsUseCase(repo, f.uc, 2*time.Hour, newTestLogger())
	uc.SetMetrics(metrics)
	uc.now = func() time.Time { return now }

	count, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stale, _ := repo.GetByID(context.Background(), "stale")
	assert.Equal(t, vo.StatusFailed, stale.Status())
	assert.Equal(t, transaction.FailureExpired, *stale.FailureReason())

	fresh, _ := repo.GetByID(context.Background(), "fresh")
	assert.Equal(t, vo.StatusPending, fresh.Status())

	paid, _ := repo.GetByID(context.Background(), "paid")
	assert.Equal(t, vo.StatusPaid, paid.Status())

	assert.Equal(t, []string{transaction.FailureExpired}, metrics.failed)

	count, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// rows without a processor payment never reach the processor
	f.processor.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
}

func newStaleExpirer(f *notificationFixture) *ExpirePendingTransactionsUseCase {
	uc := NewExpirePendingTransactionsUseCase(f.txRepo, f.uc, 2*time.Hour, newTestLogger())
	uc.SetMetrics(f.metrics)
	uc.now = func() time.Time { return time.Now().UTC().Add(3 * time.Hour) }
	return uc
}

func TestExpirePendingTransactions_ChecksProcessorFirst(t *testing.T) {
	tests := []struct {
		name          string
		info          *paymentgateway.PaymentInfo
		fetchErr      error
		wantCount     int
		wantStatus    vo.Status
		wantReason    string
		wantMembers   int
		wantSettledBy []string
	}{
		{
			name:          "captured payment is settled",
			info:          paymentInfo("pay-1", paymentgateway.StatusSucceeded, "tx-1"),
			wantCount:     0,
			wantStatus:    vo.StatusPaid,
			wantMembers:   1,
			wantSettledBy: []string{SourceNotification},
		},
		{
			name:       "canceled payment is failed",
			info:       paymentInfo("pay-1", paymentgateway.StatusCanceled, "tx-1"),
			wantCount:  1,
			wantStatus: vo.StatusFailed,
			wantReason: transaction.FailureCanceled,
		},
		{
			name:       "open payment stays pending",
			info:       paymentInfo("pay-1", paymentgateway.StatusPending, "tx-1"),
			wantStatus: vo.StatusPending,
		},
		{
			name:       "processor unreachable leaves the row for the next pass",
			fetchErr:   errors.New("connection refused"),
			wantStatus: vo.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNotificationFixture(t)
			seedPending(t, f.txRepo, "tx-1", "pay-1", "")
			if tt.fetchErr != nil {
				f.processor.On("GetPayment", mock.Anything, "pay-1").Return(nil, tt.fetchErr)
			} else {
				f.processor.On("GetPayment", mock.Anything, "pay-1").Return(tt.info, nil)
			}

			count, err := newStaleExpirer(f).Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)

			stored, _ := f.txRepo.GetByID(context.Background(), "tx-1")
			assert.Equal(t, tt.wantStatus, stored.Status())
			if tt.wantReason != "" {
				require.NotNil(t, stored.FailureReason())
				assert.Equal(t, tt.wantReason, *stored.FailureReason())
			}
			assert.Equal(t, tt.wantMembers, f.memberships.count())
			assert.Equal(t, tt.wantSettledBy, f.metrics.settled)
			assert.NotContains(t, f.metrics.failed, transaction.FailureExpired)
		})
	}
}

func TestExpirePendingTransactions_LateCaptureStillActivates(t *testing.T) {
	f := newNotificationFixture(t)
	seedPending(t, f.txRepo, "tx-1", "pay-1", "")
	f.processor.On("GetPayment", mock.Anything, "pay-1").
		Return(paymentInfo("pay-1", paymentgateway.StatusPending, "tx-1"), nil).Once()
	f.processor.On("GetPayment", mock.Anything, "pay-1").
		Return(paymentInfo("pay-1", paymentgateway.StatusSucceeded, "tx-1"), nil).Once()

	count, err := newStaleExpirer(f).Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// the user completes checkout after the TTL
	result, err := f.uc.Execute(context.Background(), HandleProcessorNotificationCommand{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, NotificationSettled, result.Outcome)

	stored, _ := f.txRepo.GetByID(context.Background(), "tx-1")
	assert.Equal(t, vo.StatusPaid, stored.Status())
	assert.Equal(t, 1, f.memberships.count())
	f.processor.AssertExpectations(t)
}
