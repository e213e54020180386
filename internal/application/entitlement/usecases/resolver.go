package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// CachedEntitlement is the membership and tier data needed to answer feature
// checks. Status and expiry are stored raw so the activity rule is always
// evaluated at read time. NotFound caches the absence of a membership.
type CachedEntitlement struct {
	TierID    string
	Status    membership.Status
	ExpiresAt *time.Time
	Features  []string
	NotFound  bool
}

// IsActiveAt applies the same compound rule as membership.Membership.
func (e *CachedEntitlement) IsActiveAt(now time.Time) bool {
	if e == nil || e.NotFound || e.Status != membership.StatusActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// EntitlementCache stores CachedEntitlement per (user, community). Get
// returns nil, nil on a miss.
type EntitlementCache interface {
	Get(ctx context.Context, userID, communityID string) (*CachedEntitlement, error)
	Set(ctx context.Context, userID, communityID string, e *CachedEntitlement) error
	Invalidate(ctx context.Context, userID, communityID string) error
}

// access is what the resolver knows about one (user, community) pair.
type access struct {
	role        community.Role
	entitlement *CachedEntitlement
	active      bool
}

// Resolver loads roles and memberships for entitlement decisions.
type Resolver struct {
	communityRepo  community.Repository
	membershipRepo membership.Repository
	cache          EntitlementCache
	logger         logger.Interface
	now            func() time.Time
}

func NewResolver(
	communityRepo community.Repository,
	membershipRepo membership.Repository,
	logger logger.Interface,
) *Resolver {
	return &Resolver{
		communityRepo:  communityRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
		now:            biztime.NowUTC,
	}
}

// SetCache sets the entitlement cache (optional dependency injection)
func (r *Resolver) SetCache(cache EntitlementCache) {
	r.cache = cache
}

// roleOf returns the user's administrative role in the community.
func (r *Resolver) roleOf(ctx context.Context, userID, communityID string) (community.Role, error) {
	role, err := r.communityRepo.GetRole(ctx, communityID, userID)
	if err != nil {
		return community.RoleNone, fmt.Errorf("failed to get community role: %w", err)
	}
	return role, nil
}

func (r *Resolver) resolve(ctx context.Context, userID, communityID string) (*access, error) {
	role, err := r.roleOf(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}

	e, err := r.entitlement(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}

	return &access{
		role:        role,
		entitlement: e,
		active:      e.IsActiveAt(r.now()),
	}, nil
}

func (r *Resolver) entitlement(ctx context.Context, userID, communityID string) (*CachedEntitlement, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, userID, communityID)
		if err != nil {
			r.logger.Warnw("entitlement cache read failed, falling back to database",
				"user_id", userID,
				"community_id", communityID,
				"error", err,
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	e, err := r.load(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, communityID, e); err != nil {
			r.logger.Warnw("failed to cache entitlement",
				"user_id", userID,
				"community_id", communityID,
				"error", err,
			)
		}
	}
	return e, nil
}

func (r *Resolver) load(ctx context.Context, userID, communityID string) (*CachedEntitlement, error) {
	m, err := r.membershipRepo.GetByUserAndCommunity(ctx, userID, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if m == nil {
		return &CachedEntitlement{NotFound: true}, nil
	}

	e := &CachedEntitlement{
		TierID:    m.TierID(),
		Status:    m.Status(),
		ExpiresAt: m.ExpiresAt(),
	}

	tier, err := r.communityRepo.GetTier(ctx, m.TierID())
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription tier: %w", err)
	}
	if tier != nil {
		e.Features = tier.Features()
	} else {
		r.logger.Warnw("membership references missing tier",
			"user_id", userID,
			"community_id", communityID,
			"tier_id", m.TierID(),
		)
	}
	return e, nil
}
