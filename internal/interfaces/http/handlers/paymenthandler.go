package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/application/payment/statuspoller"
	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

const defaultWaitTimeout = 25 * time.Second

// WaitConfig bounds the ?wait=1 long poll. Timeout caps the whole request
// and must stay below the server write timeout.
type WaitConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

type PaymentHandler struct {
	createSubscriptionUC createSubscriptionPaymentUseCase
	createPortalUC       createPortalPaymentUseCase
	getStatusUC          getTransactionStatusUseCase
	notificationUC       handleProcessorNotificationUseCase
	wait                 WaitConfig
	logger               logger.Interface
}

func NewPaymentHandler(
	createSubscriptionUC createSubscriptionPaymentUseCase,
	createPortalUC createPortalPaymentUseCase,
	getStatusUC getTransactionStatusUseCase,
	notificationUC handleProcessorNotificationUseCase,
	wait WaitConfig,
	logger logger.Interface,
) *PaymentHandler {
	if wait.Timeout <= 0 {
		wait.Timeout = defaultWaitTimeout
	}
	return &PaymentHandler{
		createSubscriptionUC: createSubscriptionUC,
		createPortalUC:       createPortalUC,
		getStatusUC:          getStatusUC,
		notificationUC:       notificationUC,
		wait:                 wait,
		logger:               logger,
	}
}

type CreateSubscriptionPaymentRequest struct {
	CommunityID        string `json:"community_id" binding:"required"`
	SubscriptionTierID string `json:"subscription_tier_id" binding:"required"`
	ReturnURL          string `json:"return_url" binding:"omitempty,url"`
}

type CreatePortalPaymentRequest struct {
	PlanID    string `json:"plan_id" binding:"required"`
	ReturnURL string `json:"return_url" binding:"omitempty,url"`
}

// ProcessorNotificationRequest is the processor's event body. Only object.id
// is trusted; the payment is re-fetched before anything changes.
type ProcessorNotificationRequest struct {
	Type   string             `json:"type"`
	Event  string             `json:"event"`
	Object NotificationObject `json:"object"`
}

type NotificationObject struct {
	ID       string            `json:"id" binding:"required"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// TransactionStatusResponse is the transaction view plus the long-poll result when requested.
type TransactionStatusResponse struct {
	*paymentUsecases.TransactionStatusDTO
	Wait *statuspoller.Outcome `json:"wait,omitempty"`
}

// CreateSubscriptionPayment handles POST /payments/subscription
func (h *PaymentHandler) CreateSubscriptionPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	var req CreateSubscriptionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid subscription payment request", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	result, err := h.createSubscriptionUC.Execute(c.Request.Context(), paymentUsecases.CreateSubscriptionPaymentCommand{
		UserID:             userID,
		CommunityID:        req.CommunityID,
		SubscriptionTierID: req.SubscriptionTierID,
		ReturnURL:          req.ReturnURL,
	})
	if err != nil {
		h.logger.Errorw("failed to create subscription payment",
			"error", err,
			"user_id", userID,
			"community_id", req.CommunityID,
			"tier_id", req.SubscriptionTierID,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "payment created successfully", result)
}

// CreatePortalPayment handles POST /payments/portal
func (h *PaymentHandler) CreatePortalPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	var req CreatePortalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid portal payment request", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	result, err := h.createPortalUC.Execute(c.Request.Context(), paymentUsecases.CreatePortalPaymentCommand{
		UserID:    userID,
		PlanID:    req.PlanID,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		h.logger.Errorw("failed to create portal payment", "error", err, "user_id", userID, "plan_id", req.PlanID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.Activated {
		utils.SuccessResponse(c, http.StatusOK, "plan activated", result)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "payment created successfully", result)
}

// GetTransaction handles GET /payments/transactions/:id. With ?wait=1 a
// pending transaction is polled until it settles or the wait budget ends.
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	query := paymentUsecases.GetTransactionStatusQuery{
		UserID:        userID,
		TransactionID: c.Param("id"),
	}

	dto, err := h.getStatusUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := TransactionStatusResponse{TransactionStatusDTO: dto}
	if !wantsWait(c) || dto.Terminal {
		utils.SuccessResponse(c, http.StatusOK, "", resp)
		return
	}

	outcome, err := h.await(c.Request.Context(), query)
	if err != nil {
		if c.Request.Context().Err() != nil {
			h.logger.Debugw("client left while waiting for transaction", "transaction_id", query.TransactionID)
			c.Abort()
			return
		}
		outcome.State = statuspoller.StateTimedOut
	}
	resp.Wait = &outcome

	if latest, err := h.getStatusUC.Execute(c.Request.Context(), query); err == nil {
		resp.TransactionStatusDTO = latest
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *PaymentHandler) await(ctx context.Context, query paymentUsecases.GetTransactionStatusQuery) (statuspoller.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, h.wait.Timeout)
	defer cancel()

	fetch := statuspoller.FetcherFunc(func(ctx context.Context, _ string) (vo.Status, error) {
		dto, err := h.getStatusUC.Execute(ctx, query)
		if err != nil {
			return "", err
		}
		return vo.Status(dto.Status), nil
	})

	poller := statuspoller.New(fetch, h.wait.Interval, h.wait.MaxAttempts, h.logger)
	return poller.Await(ctx, query.TransactionID)
}

// HandleNotification handles POST /payments/notifications from the processor.
func (h *PaymentHandler) HandleNotification(c *gin.Context) {
	var req ProcessorNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid processor notification", "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid notification body", err.Error()))
		return
	}

	result, err := h.notificationUC.Execute(c.Request.Context(), paymentUsecases.HandleProcessorNotificationCommand{
		PaymentID:     req.Object.ID,
		TransactionID: req.Object.Metadata["transaction_id"],
	})
	if err != nil {
		h.logger.Errorw("failed to handle processor notification",
			"error", err,
			"event", req.Event,
			"payment_id", req.Object.ID,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("processor notification handled",
		"event", req.Event,
		"payment_id", req.Object.ID,
		"transaction_id", result.TransactionID,
		"outcome", result.Outcome,
	)
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func wantsWait(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("wait"))
	return err == nil && v
}
