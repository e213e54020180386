// Package yookassa is the hosted-checkout processor client.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tribe-inc/tribe/internal/application/payment/paymentgateway"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/shared/config"
	"github.com/tribe-inc/tribe/internal/shared/constants"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const idempotenceHeader = "Idempotence-Key"

var ErrNotConfigured = errors.New("yookassa credentials are not configured")

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmationRequest struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url"`
}

type createPaymentBody struct {
	Amount       amount              `json:"amount"`
	Capture      bool                `json:"capture"`
	Confirmation confirmationRequest `json:"confirmation"`
	Description  string              `json:"description,omitempty"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

type payment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Paid         bool   `json:"paid"`
	Amount       amount `json:"amount"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
	Metadata map[string]string `json:"metadata"`
}

type errorResponse struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Client implements paymentgateway.PaymentProcessor over the YooKassa v3 REST API.
type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	httpClient *http.Client
	logger     logger.Interface
}

func NewClient(cfg config.YooKassaConfig, log logger.Interface) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		shopID:     strings.TrimSpace(cfg.ShopID),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.With("component", "yookassa"),
	}
}

func (c *Client) CreatePayment(ctx context.Context, req paymentgateway.CreatePaymentRequest) (*paymentgateway.CreatePaymentResponse, error) {
	money := vo.NewMoney(req.Amount, req.Currency)
	body := createPaymentBody{
		Amount:  amount{Value: money.Decimal(), Currency: money.Currency()},
		Capture: true,
		Confirmation: confirmationRequest{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Description: truncate(req.Description, 128),
		Metadata:    req.Metadata,
	}

	var p payment
	if err := c.do(ctx, http.MethodPost, "/payments", body, req.IdempotencyKey, &p); err != nil {
		return nil, err
	}
	if p.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("yookassa payment %s has no confirmation url", p.ID)
	}

	c.logger.Infow("payment created at processor",
		"payment_id", p.ID,
		"status", p.Status,
		"amount", body.Amount.Value)

	return &paymentgateway.CreatePaymentResponse{
		PaymentID:       p.ID,
		Status:          p.Status,
		ConfirmationURL: p.Confirmation.ConfirmationURL,
	}, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*paymentgateway.PaymentInfo, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	var p payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, "", &p); err != nil {
		return nil, err
	}

	minor, err := ParseMinorUnits(p.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in yookassa payment %s: %w", p.ID, err)
	}

	return &paymentgateway.PaymentInfo{
		PaymentID: p.ID,
		Status:    p.Status,
		Paid:      p.Paid,
		Amount:    minor,
		Currency:  strings.ToUpper(p.Amount.Currency),
		Metadata:  p.Metadata,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, idempotencyKey string, out any) error {
	if c.shopID == "" || c.secretKey == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode yookassa request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build yookassa request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", constants.ContentTypeJSON)
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotenceHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %s %s", paymentgateway.ErrTimeout, method, path)
		}
		return fmt.Errorf("yookassa request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr); err != nil || apiErr.Description == "" {
			return fmt.Errorf("yookassa returned status %d", resp.StatusCode)
		}
		c.logger.Warnw("yookassa rejected request",
			"path", path,
			"status", resp.StatusCode,
			"code", apiErr.Code)
		return fmt.Errorf("yookassa returned status %d: %s: %s", resp.StatusCode, apiErr.Code, apiErr.Description)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: reading %s", paymentgateway.ErrTimeout, path)
		}
		return fmt.Errorf("failed to decode yookassa response: %w", err)
	}

	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ParseMinorUnits converts a decimal string such as "500.00" or "12.5" into
// minor units. More than two fraction digits is rejected.
func ParseMinorUnits(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac, _ := strings.Cut(value, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fraction digits", value)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	minor := w*100 + f
	if negative {
		minor = -minor
	}
	return minor, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
