package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe-inc/tribe/internal/application/payment/statuspoller"
	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers/testutil"
	"github.com/tribe-inc/tribe/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockCreateSubscriptionPaymentUC struct {
	result *paymentUsecases.CreatePaymentResult
	err    error
	got    paymentUsecases.CreateSubscriptionPaymentCommand
}

func (m *mockCreateSubscriptionPaymentUC) Execute(ctx context.Context, cmd paymentUsecases.CreateSubscriptionPaymentCommand) (*paymentUsecases.CreatePaymentResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockCreatePortalPaymentUC struct {
	result *paymentUsecases.CreatePaymentResult
	err    error
}

func (m *mockCreatePortalPaymentUC) Execute(ctx context.Context, cmd paymentUsecases.CreatePortalPaymentCommand) (*paymentUsecases.CreatePaymentResult, error) {
	return m.result, m.err
}

// mockGetTransactionStatusUC returns statuses in order and repeats the last one.
type mockGetTransactionStatusUC struct {
	mu       sync.Mutex
	statuses []string
	err      error
	calls    int
}

func (m *mockGetTransactionStatusUC) Execute(ctx context.Context, query paymentUsecases.GetTransactionStatusQuery) (*paymentUsecases.TransactionStatusDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	status := m.statuses[min(m.calls, len(m.statuses))-1]
	return &paymentUsecases.TransactionStatusDTO{
		ID:       query.TransactionID,
		Status:   status,
		Amount:   49900,
		Currency: "RUB",
		Terminal: status != "pending",
	}, nil
}

type mockHandleNotificationUC struct {
	result *paymentUsecases.HandleProcessorNotificationResult
	err    error
	got    paymentUsecases.HandleProcessorNotificationCommand
}

func (m *mockHandleNotificationUC) Execute(ctx context.Context, cmd paymentUsecases.HandleProcessorNotificationCommand) (*paymentUsecases.HandleProcessorNotificationResult, error) {
	m.got = cmd
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

func newTestPaymentHandler(
	createSubscriptionUC createSubscriptionPaymentUseCase,
	createPortalUC createPortalPaymentUseCase,
	getStatusUC getTransactionStatusUseCase,
	notificationUC handleProcessorNotificationUseCase,
) *PaymentHandler {
	return NewPaymentHandler(
		createSubscriptionUC, createPortalUC, getStatusUC, notificationUC,
		WaitConfig{Interval: time.Millisecond, MaxAttempts: 5, Timeout: time.Second},
		testutil.NewMockLogger(),
	)
}

type transactionResponse struct {
	ID       string                `json:"id"`
	Status   string                `json:"status"`
	Terminal bool                  `json:"terminal"`
	Wait     *statuspoller.Outcome `json:"wait"`
}

// =====================================================================
// CreateSubscriptionPayment
// =====================================================================

func TestPaymentHandler_CreateSubscriptionPayment_Success(t *testing.T) {
	uc := &mockCreateSubscriptionPaymentUC{result: &paymentUsecases.CreatePaymentResult{
		TransactionID:   "tx-1",
		PaymentID:       "pay-1",
		ConfirmationURL: "https://checkout.example/pay-1",
	}}
	handler := newTestPaymentHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/subscription", CreateSubscriptionPaymentRequest{
		CommunityID:        "c1",
		SubscriptionTierID: "t1",
	})
	testutil.SetAuthContext(c, "user-1")

	handler.CreateSubscriptionPayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", uc.got.UserID)
	assert.Equal(t, "t1", uc.got.SubscriptionTierID)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var data paymentUsecases.CreatePaymentResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "https://checkout.example/pay-1", data.ConfirmationURL)
}

func TestPaymentHandler_CreateSubscriptionPayment_Unauthenticated(t *testing.T) {
	handler := newTestPaymentHandler(&mockCreateSubscriptionPaymentUC{}, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/subscription", CreateSubscriptionPaymentRequest{
		CommunityID:        "c1",
		SubscriptionTierID: "t1",
	})

	handler.CreateSubscriptionPayment(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_CreateSubscriptionPayment_InvalidRequest(t *testing.T) {
	handler := newTestPaymentHandler(&mockCreateSubscriptionPaymentUC{}, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/subscription", map[string]string{"community_id": "c1"})
	testutil.SetAuthContext(c, "user-1")

	handler.CreateSubscriptionPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_CreateSubscriptionPayment_TierNotModerated(t *testing.T) {
	uc := &mockCreateSubscriptionPaymentUC{err: errors.NewTierNotModeratedError("Subscription tier is pending moderation")}
	handler := newTestPaymentHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/subscription", CreateSubscriptionPaymentRequest{
		CommunityID:        "c1",
		SubscriptionTierID: "t1",
	})
	testutil.SetAuthContext(c, "user-1")

	handler.CreateSubscriptionPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "tier_not_moderated", resp.Error.Type)
	assert.Equal(t, "Subscription tier is pending moderation", resp.Error.Message)
}

func TestPaymentHandler_CreateSubscriptionPayment_UpstreamError(t *testing.T) {
	uc := &mockCreateSubscriptionPaymentUC{err: errors.NewUpstreamError("Payment provider is unavailable, please try again later")}
	handler := newTestPaymentHandler(uc, nil, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/subscription", CreateSubscriptionPaymentRequest{
		CommunityID:        "c1",
		SubscriptionTierID: "t1",
	})
	testutil.SetAuthContext(c, "user-1")

	handler.CreateSubscriptionPayment(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "upstream_error", resp.Error.Type)
}

// =====================================================================
// CreatePortalPayment
// =====================================================================

func TestPaymentHandler_CreatePortalPayment_FreePlanActivated(t *testing.T) {
	uc := &mockCreatePortalPaymentUC{result: &paymentUsecases.CreatePaymentResult{Activated: true}}
	handler := newTestPaymentHandler(nil, uc, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/portal", CreatePortalPaymentRequest{PlanID: "free"})
	testutil.SetAuthContext(c, "user-1")

	handler.CreatePortalPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data paymentUsecases.CreatePaymentResult
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Activated)
	assert.Empty(t, data.ConfirmationURL)
}

func TestPaymentHandler_CreatePortalPayment_InvalidReturnURL(t *testing.T) {
	handler := newTestPaymentHandler(nil, &mockCreatePortalPaymentUC{}, nil, nil)

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/portal", CreatePortalPaymentRequest{PlanID: "pro", ReturnURL: "not a url"})
	testutil.SetAuthContext(c, "user-1")

	handler.CreatePortalPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================================================
// GetTransaction
// =====================================================================

func TestPaymentHandler_GetTransaction_NoWait(t *testing.T) {
	uc := &mockGetTransactionStatusUC{statuses: []string{"pending"}}
	handler := newTestPaymentHandler(nil, nil, uc, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/payments/transactions/tx-1", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "tx-1")

	handler.GetTransaction(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, uc.calls)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data transactionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "pending", data.Status)
	assert.Nil(t, data.Wait)
}

func TestPaymentHandler_GetTransaction_WaitUntilPaid(t *testing.T) {
	uc := &mockGetTransactionStatusUC{statuses: []string{"pending", "pending", "paid"}}
	handler := newTestPaymentHandler(nil, nil, uc, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/payments/transactions/tx-1?wait=1", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "tx-1")

	handler.GetTransaction(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data transactionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "paid", data.Status)
	assert.True(t, data.Terminal)
	require.NotNil(t, data.Wait)
	assert.Equal(t, statuspoller.StateSucceeded, data.Wait.State)
	assert.Equal(t, 2, data.Wait.Attempts)
}

func TestPaymentHandler_GetTransaction_WaitGivesUp(t *testing.T) {
	uc := &mockGetTransactionStatusUC{statuses: []string{"pending"}}
	handler := newTestPaymentHandler(nil, nil, uc, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/payments/transactions/tx-1?wait=true", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "tx-1")

	handler.GetTransaction(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data transactionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "pending", data.Status)
	require.NotNil(t, data.Wait)
	assert.Equal(t, statuspoller.StateTimedOut, data.Wait.State)
	assert.Equal(t, 5, data.Wait.Attempts)
}

func TestPaymentHandler_GetTransaction_TerminalSkipsWait(t *testing.T) {
	uc := &mockGetTransactionStatusUC{statuses: []string{"failed"}}
	handler := newTestPaymentHandler(nil, nil, uc, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/payments/transactions/tx-1?wait=1", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "tx-1")

	handler.GetTransaction(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, uc.calls)
}

func TestPaymentHandler_GetTransaction_NotFound(t *testing.T) {
	uc := &mockGetTransactionStatusUC{err: errors.NewNotFoundError("Transaction not found")}
	handler := newTestPaymentHandler(nil, nil, uc, nil)

	c, w := testutil.NewTestContext(http.MethodGet, "/payments/transactions/other?wait=1", nil)
	testutil.SetAuthContext(c, "user-1")
	testutil.SetURLParam(c, "id", "other")

	handler.GetTransaction(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, uc.calls)
}

// =====================================================================
// HandleNotification
// =====================================================================

func TestPaymentHandler_HandleNotification_Success(t *testing.T) {
	uc := &mockHandleNotificationUC{result: &paymentUsecases.HandleProcessorNotificationResult{
		TransactionID: "tx-1",
		Status:        "paid",
		Outcome:       paymentUsecases.NotificationSettled,
	}}
	handler := newTestPaymentHandler(nil, nil, nil, uc)

	body := map[string]any{
		"type":  "notification",
		"event": "payment.succeeded",
		"object": map[string]any{
			"id":       "pay-1",
			"status":   "succeeded",
			"metadata": map[string]string{"transaction_id": "tx-1"},
		},
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/payments/notifications", body)

	handler.HandleNotification(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pay-1", uc.got.PaymentID)
	assert.Equal(t, "tx-1", uc.got.TransactionID)
}

func TestPaymentHandler_HandleNotification_MissingObjectID(t *testing.T) {
	handler := newTestPaymentHandler(nil, nil, nil, &mockHandleNotificationUC{})

	c, w := testutil.NewTestContext(http.MethodPost, "/payments/notifications", map[string]any{
		"event":  "payment.succeeded",
		"object": map[string]any{"status": "succeeded"},
	})

	handler.HandleNotification(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
