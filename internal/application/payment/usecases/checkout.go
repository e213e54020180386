package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	"github.com/tribe-inc/tribe/internal/domain/transaction"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// ReturnURLPlaceholder is replaced with the transaction id in caller-supplied return URLs.
const ReturnURLPlaceholder = "{transaction_id}"

// CreatePaymentResult is returned by both initiation use cases. Activated is
// set when a free plan was applied without a processor round trip.
type CreatePaymentResult struct {
	TransactionID   string `json:"transaction_id,omitempty"`
	PaymentID       string `json:"payment_id,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
	Activated       bool   `json:"activated"`
}

// checkout sends a persisted pending transaction to the processor and
// records the outcome on it.
type checkout struct {
	transactionRepo transaction.Repository
	processor       paymentgateway.PaymentProcessor
	frontendBaseURL string
	timeout         time.Duration
	metrics         Metrics
	logger          logger.Interface
}

func (c *checkout) start(
	ctx context.Context,
	tx *transaction.Transaction,
	description string,
	returnURL string,
	metadata map[string]string,
) (*CreatePaymentResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.processor.CreatePayment(callCtx, paymentgateway.CreatePaymentRequest{
		IdempotencyKey: tx.IdempotencyKey(),
		Amount:         tx.Amount().AmountMinor(),
		Currency:       tx.Amount().Currency(),
		Description:    description,
		ReturnURL:      c.buildReturnURL(returnURL, tx.ID()),
		Metadata:       metadata,
	})
	if err != nil {
		reason := transaction.FailureProcessorError
		if errors.Is(err, paymentgateway.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			reason = transaction.FailureTimeout
		}
		c.logger.Errorw("payment processor rejected payment creation",
			"transaction_id", tx.ID(),
			"reason", reason,
			"error", err,
		)
		if failErr := c.markFailed(ctx, tx, reason); failErr != nil {
			return nil, failErr
		}
		return nil, apperrors.NewUpstreamError("Payment provider is unavailable, please try again later")
	}

	if err := tx.AttachProviderPayment(resp.PaymentID); err != nil {
		return nil, fmt.Errorf("failed to attach provider payment: %w", err)
	}
	if err := c.transactionRepo.Update(ctx, tx); err != nil {
		c.logger.Errorw("failed to record provider payment id",
			"transaction_id", tx.ID(),
			"payment_id", resp.PaymentID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	return &CreatePaymentResult{
		TransactionID:   tx.ID(),
		PaymentID:       resp.PaymentID,
		ConfirmationURL: resp.ConfirmationURL,
	}, nil
}

// markFailed persists the failure even when the request context is already
// done, so a processor timeout never leaves the row pending.
func (c *checkout) markFailed(ctx context.Context, tx *transaction.Transaction, reason string) error {
	if err := tx.MarkAsFailed(reason); err != nil {
		return fmt.Errorf("failed to mark transaction as failed: %w", err)
	}
	if err := c.transactionRepo.Update(context.WithoutCancel(ctx), tx); err != nil {
		c.logger.Errorw("failed to persist failed transaction",
			"transaction_id", tx.ID(),
			"error", err,
		)
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if c.metrics != nil {
		c.metrics.PaymentFailed(reason)
	}
	return nil
}

// buildReturnURL substitutes the transaction id into the caller's URL. Without
// a placeholder the id is appended as a query parameter; without a URL the
// frontend payment page is used.
func (c *checkout) buildReturnURL(returnURL, transactionID string) string {
	if returnURL == "" {
		return strings.TrimRight(c.frontendBaseURL, "/") + "/payments/" + url.PathEscape(transactionID)
	}
	if strings.Contains(returnURL, ReturnURLPlaceholder) {
		return strings.ReplaceAll(returnURL, ReturnURLPlaceholder, url.QueryEscape(transactionID))
	}

	u, err := url.Parse(returnURL)
	if err != nil {
		return returnURL
	}
	q := u.Query()
	q.Set("transaction_id", transactionID)
	u.RawQuery = q.Encode()
	return u.String()
}
