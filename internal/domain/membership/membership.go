package membership

import (
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/shared/biztime"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusCanceled Status = "canceled"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusExpired || s == StatusCanceled
}

// RenewalMonthly is the only renewal period settlement produces.
const RenewalMonthly = "month"

// Membership is a user's standing in one community. There is at most one
// row per (user, community).
type Membership struct {
	id                     uint
	userID                 string
	communityID            string
	tierID                 string
	status                 Status
	startedAt              time.Time
	expiresAt              *time.Time
	renewalPeriod          string
	externalSubscriptionID *string
	createdAt              time.Time
	updatedAt              time.Time
}

// ActivationParams describes the membership written by a settlement.
type ActivationParams struct {
	UserID                 string
	CommunityID            string
	TierID                 string
	StartedAt              time.Time
	ExternalSubscriptionID string
}

// NewActivation builds an active monthly membership starting at StartedAt and
// expiring one calendar month later.
func NewActivation(p ActivationParams) (*Membership, error) {
	if p.UserID == "" || p.CommunityID == "" || p.TierID == "" {
		return nil, fmt.Errorf("user, community and tier are required")
	}
	startedAt := p.StartedAt
	if startedAt.IsZero() {
		startedAt = biztime.NowUTC()
	}
	expiresAt := biztime.AddMonths(startedAt, 1)

	m := &Membership{
		userID:        p.UserID,
		communityID:   p.CommunityID,
		tierID:        p.TierID,
		status:        StatusActive,
		startedAt:     startedAt,
		expiresAt:     &expiresAt,
		renewalPeriod: RenewalMonthly,
		createdAt:     startedAt,
		updatedAt:     startedAt,
	}
	if p.ExternalSubscriptionID != "" {
		ext := p.ExternalSubscriptionID
		m.externalSubscriptionID = &ext
	}
	return m, nil
}

// IsActiveAt applies the effective activity rule: stored status active and
// not past expires_at. Expiry is never swept eagerly, so callers must not
// rely on status alone.
func (m *Membership) IsActiveAt(now time.Time) bool {
	if m.status != StatusActive {
		return false
	}
	return m.expiresAt == nil || m.expiresAt.After(now)
}

func (m *Membership) ID() uint                        { return m.id }
func (m *Membership) UserID() string                  { return m.userID }
func (m *Membership) CommunityID() string             { return m.communityID }
func (m *Membership) TierID() string                  { return m.tierID }
func (m *Membership) Status() Status                  { return m.status }
func (m *Membership) StartedAt() time.Time            { return m.startedAt }
func (m *Membership) ExpiresAt() *time.Time           { return m.expiresAt }
func (m *Membership) RenewalPeriod() string           { return m.renewalPeriod }
func (m *Membership) ExternalSubscriptionID() *string { return m.externalSubscriptionID }
func (m *Membership) CreatedAt() time.Time            { return m.createdAt }
func (m *Membership) UpdatedAt() time.Time            { return m.updatedAt }

type ReconstructParams struct {
	ID                     uint
	UserID                 string
	CommunityID            string
	TierID                 string
	Status                 Status
	StartedAt              time.Time
	ExpiresAt              *time.Time
	RenewalPeriod          string
	ExternalSubscriptionID *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func Reconstruct(p ReconstructParams) *Membership {
	return &Membership{
		id:                     p.ID,
		userID:                 p.UserID,
		communityID:            p.CommunityID,
		tierID:                 p.TierID,
		status:                 p.Status,
		startedAt:              p.StartedAt,
		expiresAt:              p.ExpiresAt,
		renewalPeriod:          p.RenewalPeriod,
		externalSubscriptionID: p.ExternalSubscriptionID,
		createdAt:              p.CreatedAt,
		updatedAt:              p.UpdatedAt,
	}
}
