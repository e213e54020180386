package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entitlementUsecases "github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	"github.com/tribe-inc/tribe/internal/domain/referral"
	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers/testutil"
)

type mockListFeaturesUC struct {
	result *entitlementUsecases.FeatureAccessDTO
	err    error
}

func (m *mockListFeaturesUC) Execute(ctx context.Context, query entitlementUsecases.ListFeaturesQuery) (*entitlementUsecases.FeatureAccessDTO, error) {
	return m.result, m.err
}

type mockHasFeatureUC struct {
	got entitlementUsecases.HasFeatureQuery
	err error
}

func (m *mockHasFeatureUC) Execute(ctx context.Context, query entitlementUsecases.HasFeatureQuery) (*entitlementUsecases.HasFeatureResult, error) {
	m.got = query
	if m.err != nil {
		return nil, m.err
	}
	return &entitlementUsecases.HasFeatureResult{
		Feature: query.Feature,
		Allowed: query.Feature == "chat",
		Reason:  entitlementUsecases.ReasonTierFeature,
	}, nil
}

type mockComputeDiscountUC struct {
	summary *referral.Summary
	err     error
}

func (m *mockComputeDiscountUC) Execute(ctx context.Context, userID string) (*referral.Summary, error) {
	return m.summary, m.err
}

func TestFeatureHandler_HasFeature(t *testing.T) {
	uc := &mockHasFeatureUC{}
	handler := NewFeatureHandler(nil, uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/communities/c1/features/chat", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "c1")
	testutil.SetURLParam(c, "feature", "chat")

	handler.HasFeature(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entitlementUsecases.HasFeatureQuery{UserID: "user-1", CommunityID: "c1", Feature: "chat"}, uc.got)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data entitlementUsecases.HasFeatureResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Allowed)
}

func TestFeatureHandler_HasFeature_Unauthenticated(t *testing.T) {
	handler := NewFeatureHandler(nil, &mockHasFeatureUC{}, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/communities/c1/features/chat", nil)
	testutil.SetURLParam(c, "id", "c1")
	testutil.SetURLParam(c, "feature", "chat")

	handler.HasFeature(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeatureHandler_ListFeatures(t *testing.T) {
	uc := &mockListFeaturesUC{result: &entitlementUsecases.FeatureAccessDTO{
		CommunityID:      "c1",
		MembershipStatus: "active",
		Active:           true,
		TierID:           "t1",
		Features:         []string{"chat", "videos"},
	}}
	handler := NewFeatureHandler(uc, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/communities/c1/features", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "c1")

	handler.ListFeatures(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data entitlementUsecases.FeatureAccessDTO
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, []string{"chat", "videos"}, data.Features)
}

func TestFeatureHandler_ListFeatures_InternalErrorHidden(t *testing.T) {
	uc := &mockListFeaturesUC{err: errors.New("failed to get membership: connection refused")}
	handler := NewFeatureHandler(uc, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/communities/c1/features", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "c1")

	handler.ListFeatures(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestReferralHandler_GetDiscount(t *testing.T) {
	uc := &mockComputeDiscountUC{summary: &referral.Summary{TotalReferred: 6, PayingReferred: 5, DiscountPercent: 14}}
	handler := NewReferralHandler(uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/referrals/discount", nil)
	testutil.SetAuthContext(c, "user-1")

	handler.GetDiscount(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data referral.Summary
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 14, data.DiscountPercent)
}

func TestHealthHandler(t *testing.T) {
	healthy := func(ctx context.Context) error { return nil }
	broken := func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	t.Run("all up", func(t *testing.T) {
		handler := NewHealthHandler(map[string]HealthCheck{"database": healthy}, testutil.NewMockLogger())
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)

		handler.Health(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"up"`)
	})

	t.Run("dependency down", func(t *testing.T) {
		handler := NewHealthHandler(map[string]HealthCheck{"database": healthy, "redis": broken}, testutil.NewMockLogger())
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)

		handler.Health(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"down"`)
		assert.NotContains(t, w.Body.String(), "refused")
	})
}
