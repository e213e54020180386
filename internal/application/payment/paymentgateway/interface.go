package paymentgateway

import (
	"context"
	"errors"
)

// Payment statuses reported by the processor.
const (
	StatusPending           = "pending"
	StatusWaitingForCapture = "waiting_for_capture"
	StatusSucceeded         = "succeeded"
	StatusCanceled          = "canceled"
)

// ErrTimeout is returned when the processor did not answer within the
// configured deadline.
var ErrTimeout = errors.New("payment processor request timed out")

// PaymentProcessor is a hosted-checkout payment processor.
type PaymentProcessor interface {
	// CreatePayment registers a payment and returns the hosted confirmation URL.
	// IdempotencyKey is forwarded unchanged so retries never double-charge.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)

	// GetPayment fetches the processor's current view of a payment.
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

// CreatePaymentRequest contains the data needed to create a payment
type CreatePaymentRequest struct {
	IdempotencyKey string
	Amount         int64 // minor units
	Currency       string
	Description    string
	ReturnURL      string
	Metadata       map[string]string
}

type CreatePaymentResponse struct {
	PaymentID       string
	Status          string
	ConfirmationURL string
}

// PaymentInfo is the processor-side state of a payment.
type PaymentInfo struct {
	PaymentID string
	Status    string
	Paid      bool
	Amount    int64 // minor units
	Currency  string
	Metadata  map[string]string
}
