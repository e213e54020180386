// Package referral derives a user's lifetime discount from the users they referred.
package referral

import "context"

const (
	firstPayingDiscount = 10
	maxDiscount         = 50
)

// Stat is one row of the referral_stats view.
type Stat struct {
	ReferrerID string
	ReferredID string
	IsPaying   bool
}

type Summary struct {
	TotalReferred   int `json:"total_referred"`
	PayingReferred  int `json:"paying_referred"`
	DiscountPercent int `json:"discount_percent"`
}

// Discount maps the number of paying referred users to a percentage:
// none earns 0, the first earns 10, each further one adds 1, capped at 50.
func Discount(payingReferred int) int {
	if payingReferred <= 0 {
		return 0
	}
	return min(firstPayingDiscount+(payingReferred-1), maxDiscount)
}

// Summarize aggregates stats rows. Rows are assumed to be scoped to one referrer.
func Summarize(stats []Stat) Summary {
	s := Summary{TotalReferred: len(stats)}
	for _, st := range stats {
		if st.IsPaying {
			s.PayingReferred++
		}
	}
	s.DiscountPercent = Discount(s.PayingReferred)
	return s
}

type Repository interface {
	ListByReferrer(ctx context.Context, referrerID string) ([]Stat, error)
}
