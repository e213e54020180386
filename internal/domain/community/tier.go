package community

import (
	"slices"
	"time"
)

// Tier is a community-defined subscription plan. Prices are in minor units.
type Tier struct {
	id           string
	externalID   int64
	communityID  string
	name         string
	monthlyPrice int64
	yearlyPrice  int64
	currency     string
	isFree       bool
	isActive     bool
	features     []string
	moderatedAt  *time.Time
}

type TierParams struct {
	ID           string
	ExternalID   int64
	CommunityID  string
	Name         string
	MonthlyPrice int64
	YearlyPrice  int64
	Currency     string
	IsFree       bool
	IsActive     bool
	Features     []string
	ModeratedAt  *time.Time
}

func ReconstructTier(p TierParams) *Tier {
	return &Tier{
		id:           p.ID,
		externalID:   p.ExternalID,
		communityID:  p.CommunityID,
		name:         p.Name,
		monthlyPrice: p.MonthlyPrice,
		yearlyPrice:  p.YearlyPrice,
		currency:     p.Currency,
		isFree:       p.IsFree,
		isActive:     p.IsActive,
		features:     slices.Clone(p.Features),
		moderatedAt:  p.ModeratedAt,
	}
}

// CheckPurchasable returns ErrTierNotModerated or ErrTierInactive when the
// tier must not be sold. Moderation is checked first.
func (t *Tier) CheckPurchasable() error {
	if !t.IsModerated() {
		return ErrTierNotModerated
	}
	if !t.isActive {
		return ErrTierInactive
	}
	return nil
}

func (t *Tier) IsModerated() bool {
	return t.moderatedAt != nil
}

func (t *Tier) BelongsTo(communityID string) bool {
	return t.communityID == communityID
}

func (t *Tier) ID() string              { return t.id }
func (t *Tier) ExternalID() int64       { return t.externalID }
func (t *Tier) CommunityID() string     { return t.communityID }
func (t *Tier) Name() string            { return t.name }
func (t *Tier) MonthlyPrice() int64     { return t.monthlyPrice }
func (t *Tier) YearlyPrice() int64      { return t.yearlyPrice }
func (t *Tier) Currency() string        { return t.currency }
func (t *Tier) IsFree() bool            { return t.isFree }
func (t *Tier) IsActive() bool          { return t.isActive }
func (t *Tier) ModeratedAt() *time.Time { return t.moderatedAt }

// Features returns the ordered feature tokens.
func (t *Tier) Features() []string {
	return slices.Clone(t.features)
}
