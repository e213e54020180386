package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	"github.com/tribe-inc/tribe/internal/shared/constants"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

type signatureVerifier interface {
	Verify(body []byte, signature string) error
}

// WebhookHandler receives signed provider events.
type WebhookHandler struct {
	verifier        signatureVerifier
	signatureHeader string
	settleUC        settleWebhookPaymentUseCase
	logger          logger.Interface
}

func NewWebhookHandler(
	verifier signatureVerifier,
	signatureHeader string,
	settleUC settleWebhookPaymentUseCase,
	logger logger.Interface,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:        verifier,
		signatureHeader: signatureHeader,
		settleUC:        settleUC,
		logger:          logger,
	}
}

// HandleTribute handles POST /webhooks/tribute. The signature is checked
// against the raw bytes before the body is decoded.
func (h *WebhookHandler) HandleTribute(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warnw("webhook body too large", "client_ip", c.ClientIP(), "limit", tooLarge.Limit)
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Failed to read request body"))
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(h.signatureHeader)); err != nil {
		h.logger.Warnw("webhook signature rejected", "error", err, "client_ip", c.ClientIP())
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Invalid signature"))
		return
	}

	result, err := h.settleUC.Execute(c.Request.Context(), paymentUsecases.SettleWebhookPaymentCommand{RawBody: body})
	if err != nil {
		h.logger.Errorw("failed to settle webhook event", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("webhook event processed",
		"outcome", result.Outcome,
		"transaction_id", result.TransactionID,
	)
	c.Status(http.StatusOK)
}
