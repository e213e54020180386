package valueobjects

import (
	"fmt"
	"strings"
)

// Money is an amount in minor currency units (kopecks, cents).
type Money struct {
	amountMinor int64
	currency    string
}

func NewMoney(amountMinor int64, currency string) Money {
	if currency == "" {
		currency = "RUB"
	}
	return Money{
		amountMinor: amountMinor,
		currency:    strings.ToUpper(currency),
	}
}

func (m Money) AmountMinor() int64 {
	return m.amountMinor
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsPositive() bool {
	return m.amountMinor > 0
}

func (m Money) IsZero() bool {
	return m.amountMinor == 0
}

// Decimal renders the amount with two fraction digits ("500.00"), the
// format the payment processor expects.
func (m Money) Decimal() string {
	sign := ""
	v := m.amountMinor
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ApplyDiscount returns the amount reduced by percent, rounded down to a
// whole minor unit. Percent outside [0, 100] is clamped.
func (m Money) ApplyDiscount(percent int) Money {
	if percent <= 0 {
		return m
	}
	if percent > 100 {
		percent = 100
	}
	return Money{
		amountMinor: m.amountMinor * int64(100-percent) / 100,
		currency:    m.currency,
	}
}

func (m Money) String() string {
	return m.Decimal() + " " + m.currency
}
