package usecases

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Webhook event names with dedicated handling. Any other event that carries a
// product settles like a purchase.
const (
	EventNewSubscription       = "new_subscription"
	EventNewDonation           = "new_donation"
	EventNewDigitalProduct     = "new_digital_product"
	EventCancelledSubscription = "cancelled_subscription"
)

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// WebhookEvent is the signed envelope pushed by the bot-payment provider.
type WebhookEvent struct {
	Name      string         `json:"name" validate:"required"`
	CreatedAt string         `json:"created_at"`
	SentAt    string         `json:"sent_at"`
	Payload   WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	ProductID      FlexString `json:"product_id"`
	ProductName    string     `json:"product_name"`
	Amount         int64      `json:"amount" validate:"gte=0"`
	Currency       string     `json:"currency" validate:"omitempty,len=3"`
	UserID         FlexString `json:"user_id"`
	TelegramUserID int64      `json:"telegram_user_id"`
	SubscriptionID FlexString `json:"subscription_id"`
}

// HasProduct reports whether the event references a purchasable product.
func (e *WebhookEvent) HasProduct() bool {
	return e.Payload.ProductID != ""
}

// DedupeKey identifies one delivery of one event. Replays of the same event
// produce the same key.
func (e *WebhookEvent) DedupeKey() string {
	return strings.Join([]string{
		e.Name,
		e.CreatedAt,
		e.Payload.UserID.String(),
		e.Payload.ProductID.String(),
	}, ":")
}

// settlementTarget carries the fields a product event must have before any
// lookup happens.
type settlementTarget struct {
	ProductID      string `validate:"required,product_name"`
	TelegramUserID int64  `validate:"required,gt=0"`
}

var webhookValidator = newWebhookValidator()

func newWebhookValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("product_name", func(fl validator.FieldLevel) bool {
		_, err := TierExternalID(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseWebhookEvent decodes and validates a verified webhook body.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}
	if err := webhookValidator.Struct(&event); err != nil {
		return nil, fmt.Errorf("invalid webhook event: %w", err)
	}
	return &event, nil
}

// TierExternalID extracts the numeric tier id from a product reference of
// the form "<id>_<slug>". A bare number is accepted as well.
func TierExternalID(productID string) (int64, error) {
	prefix, _, _ := strings.Cut(productID, "_")
	if prefix == "" {
		return 0, fmt.Errorf("product %q has no numeric tier prefix", productID)
	}
	n, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("product %q has no numeric tier prefix", productID)
	}
	return n, nil
}
