package usecases

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/domain/portal"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/referral"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

func newTestLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ============================================================================
// Payment processor
// ============================================================================

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreatePayment(ctx context.Context, req paymentgateway.CreatePaymentRequest) (*paymentgateway.CreatePaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreatePaymentResponse), args.Error(1)
}

func (m *mockProcessor) GetPayment(ctx context.Context, paymentID string) (*paymentgateway.PaymentInfo, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.PaymentInfo), args.Error(1)
}

// ============================================================================
// Transactions
// ============================================================================

type memTransactionRepo struct {
	mu   sync.Mutex
	rows map[string]*transaction.Transaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{rows: make(map[string]*transaction.Transaction)}
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	return transaction.Reconstruct(transaction.ReconstructParams{
		ID:                 t.ID(),
		UserID:             t.UserID(),
		CommunityID:        t.CommunityID(),
		SubscriptionTierID: t.SubscriptionTierID(),
		Amount:             t.Amount(),
		Status:             t.Status(),
		Provider:           t.Provider(),
		ProviderPaymentID:  t.ProviderPaymentID(),
		IdempotencyKey:     t.IdempotencyKey(),
		FailureReason:      t.FailureReason(),
		Metadata:           t.Metadata(),
		CreatedAt:          t.CreatedAt(),
		UpdatedAt:          t.UpdatedAt(),
	})
}

func (r *memTransactionRepo) Create(ctx context.Context, t *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.IdempotencyKey() == t.IdempotencyKey() {
			if t.HasDerivedIdempotencyKey() {
				return transaction.ErrDuplicateProviderPayment
			}
			return errors.New("duplicate idempotency key")
		}
		if t.ProviderPaymentID() != nil && row.ProviderPaymentID() != nil &&
			row.Provider() == t.Provider() && *row.ProviderPaymentID() == *t.ProviderPaymentID() {
			return transaction.ErrDuplicateProviderPayment
		}
	}
	r.rows[t.ID()] = cloneTransaction(t)
	return nil
}

func (r *memTransactionRepo) Update(ctx context.Context, t *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[t.ID()]
	if !ok || !row.Status().IsPending() {
		return transaction.ErrAlreadyTerminal
	}
	r.rows[t.ID()] = cloneTransaction(t)
	return nil
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return cloneTransaction(row), nil
}

func (r *memTransactionRepo) GetByProviderPaymentID(ctx context.Context, provider vo.Provider, providerPaymentID string) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Provider() == provider && row.ProviderPaymentID() != nil && *row.ProviderPaymentID() == providerPaymentID {
			return cloneTransaction(row), nil
		}
	}
	return nil, nil
}

func (r *memTransactionRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transaction.Transaction
	for _, row := range r.rows {
		if row.Status().IsPending() && row.CreatedAt().Before(cutoff) {
			out = append(out, cloneTransaction(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTransactionRepo) all() []*transaction.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, cloneTransaction(row))
	}
	return out
}

// put stores t as-is, bypassing Create's uniqueness checks.
func (r *memTransactionRepo) put(t *transaction.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.ID()] = cloneTransaction(t)
}

// ============================================================================
// Memberships
// ============================================================================

type memMembershipRepo struct {
	mu      sync.Mutex
	rows    map[string]*membership.Membership
	upserts int
	failErr error
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{rows: make(map[string]*membership.Membership)}
}

func membershipKey(userID, communityID string) string {
	return userID + "|" + communityID
}

func (r *memMembershipRepo) Upsert(ctx context.Context, m *membership.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.upserts++
	r.rows[membershipKey(m.UserID(), m.CommunityID())] = m
	return nil
}

func (r *memMembershipRepo) GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[membershipKey(userID, communityID)], nil
}

func (r *memMembershipRepo) UpdateStatus(ctx context.Context, userID, communityID string, status membership.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[membershipKey(userID, communityID)]
	if !ok {
		return false, nil
	}
	r.rows[membershipKey(userID, communityID)] = membership.Reconstruct(membership.ReconstructParams{
		ID:                     m.ID(),
		UserID:                 m.UserID(),
		CommunityID:            m.CommunityID(),
		TierID:                 m.TierID(),
		Status:                 status,
		StartedAt:              m.StartedAt(),
		ExpiresAt:              m.ExpiresAt(),
		RenewalPeriod:          m.RenewalPeriod(),
		ExternalSubscriptionID: m.ExternalSubscriptionID(),
	})
	return true, nil
}

func (r *memMembershipRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// ============================================================================
// Communities, profiles, plans, referrals
// ============================================================================

type memCommunityRepo struct {
	communities map[string]*community.Community
	tiers       map[string]*community.Tier
	roles       map[string]community.Role
}

func newMemCommunityRepo() *memCommunityRepo {
	return &memCommunityRepo{
		communities: make(map[string]*community.Community),
		tiers:       make(map[string]*community.Tier),
		roles:       make(map[string]community.Role),
	}
}

func (r *memCommunityRepo) GetByID(ctx context.Context, id string) (*community.Community, error) {
	return r.communities[id], nil
}

func (r *memCommunityRepo) GetTier(ctx context.Context, tierID string) (*community.Tier, error) {
	return r.tiers[tierID], nil
}

func (r *memCommunityRepo) GetTierByExternalID(ctx context.Context, externalID int64) (*community.Tier, error) {
	for _, t := range r.tiers {
		if t.ExternalID() == externalID {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memCommunityRepo) GetRole(ctx context.Context, communityID, userID string) (community.Role, error) {
	return r.roles[communityID+"|"+userID], nil
}

type memProfileRepo struct {
	mu           sync.Mutex
	profiles     map[string]*profile.Profile
	portalWrites int
}

func newMemProfileRepo(profiles ...*profile.Profile) *memProfileRepo {
	r := &memProfileRepo{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *memProfileRepo) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[id], nil
}

func (r *memProfileRepo) GetByTelegramUserID(ctx context.Context, telegramUserID int64) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.TelegramUserID != nil && *p.TelegramUserID == telegramUserID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProfileRepo) SetPortalPlan(ctx context.Context, userID, planID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return false, nil
	}
	r.portalWrites++
	p.PortalPlanID = &planID
	return true, nil
}

type memPlanRepo map[string]*portal.Plan

func (r memPlanRepo) GetByID(ctx context.Context, id string) (*portal.Plan, error) {
	return r[id], nil
}

type memReferralRepo map[string][]referral.Stat

func (r memReferralRepo) ListByReferrer(ctx context.Context, referrerID string) ([]referral.Stat, error) {
	return r[referrerID], nil
}

// ============================================================================
// Effects
// ============================================================================

type passthroughRunner struct{}

func (passthroughRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingMetrics struct {
	mu        sync.Mutex
	initiated []string
	settled   []string
	failed    []string
	replayed  int
}

func (m *recordingMetrics) PaymentInitiated(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiated = append(m.initiated, kind)
}

func (m *recordingMetrics) PaymentSettled(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = append(m.settled, source)
}

func (m *recordingMetrics) PaymentFailed(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, reason)
}

func (m *recordingMetrics) WebhookReplayed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replayed++
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID, communityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, membershipKey(userID, communityID))
	return nil
}

type channelNotifier struct {
	notices chan MembershipActivatedNotice
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{notices: make(chan MembershipActivatedNotice, 4)}
}

func (n *channelNotifier) NotifyMembershipActivated(ctx context.Context, notice MembershipActivatedNotice) error {
	n.notices <- notice
	return nil
}

// ============================================================================
// Fixtures
// ============================================================================

const (
	testUserID      = "user-1"
	testCommunityID = "community-1"
	testTierID      = "tier-1"
	testTierExtID   = int64(42)
	testTelegramID  = int64(777000)
)

func moderatedAt() *time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedCommunity(repo *memCommunityRepo, tierOpts ...func(*community.TierParams)) {
	repo.communities[testCommunityID] = &community.Community{
		ID:      testCommunityID,
		Name:    "Go Study Group",
		Slug:    "go-study",
		OwnerID: "owner-1",
	}
	params := community.TierParams{
		ID:           testTierID,
		ExternalID:   testTierExtID,
		CommunityID:  testCommunityID,
		Name:         "Pro",
		MonthlyPrice: 50000,
		YearlyPrice:  500000,
		Currency:     "RUB",
		IsActive:     true,
		Features:     []string{"group_calls", "private_chat"},
		ModeratedAt:  moderatedAt(),
	}
	for _, opt := range tierOpts {
		opt(&params)
	}
	repo.tiers[params.ID] = community.ReconstructTier(params)
}

func testProfile() *profile.Profile {
	tg := testTelegramID
	return &profile.Profile{ID: testUserID, TelegramUserID: &tg, DisplayName: "Ann"}
}
