package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney_Decimal(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{50000, "500.00"},
		{1, "0.01"},
		{12345, "123.45"},
		{0, "0.00"},
		{-250, "-2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMoney(tt.minor, "rub").Decimal())
		})
	}
}

func TestMoney_ApplyDiscount(t *testing.T) {
	price := NewMoney(99900, "RUB")

	assert.Equal(t, int64(99900), price.ApplyDiscount(0).AmountMinor())
	assert.Equal(t, int64(89910), price.ApplyDiscount(10).AmountMinor())
	assert.Equal(t, int64(49950), price.ApplyDiscount(50).AmountMinor())
	assert.Equal(t, int64(0), price.ApplyDiscount(150).AmountMinor())
	assert.Equal(t, "RUB", price.ApplyDiscount(14).Currency())
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusSucceeded.IsSuccessful())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusFailed.IsSuccessful())
	assert.False(t, Status("refunded").IsValid())
}
