package portal

import "context"

// Plan is a platform-wide subscription plan. Price is in minor units.
type Plan struct {
	ID       string
	Name     string
	Price    int64
	Currency string
	IsActive bool
}

// IsFree plans are activated without contacting a payment processor.
func (p *Plan) IsFree() bool {
	return p.Price == 0
}

type Repository interface {
	// GetByID returns nil, nil when the plan does not exist.
	GetByID(ctx context.Context, id string) (*Plan, error)
}
