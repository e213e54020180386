package usecases

import (
	"context"
	"slices"

	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// Decision reasons.
const (
	ReasonRole         = "role"
	ReasonTierFeature  = "tier_feature"
	ReasonNoMembership = "no_active_membership"
	ReasonNotInTier    = "feature_not_in_tier"
)

type HasFeatureQuery struct {
	UserID      string
	CommunityID string
	Feature     string
}

type HasFeatureResult struct {
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

type HasFeatureUseCase struct {
	resolver *Resolver
	logger   logger.Interface
}

func NewHasFeatureUseCase(resolver *Resolver, logger logger.Interface) *HasFeatureUseCase {
	return &HasFeatureUseCase{resolver: resolver, logger: logger}
}

// Execute answers a gated-feature check. Owners and moderators are allowed
// before any membership lookup.
func (uc *HasFeatureUseCase) Execute(ctx context.Context, query HasFeatureQuery) (*HasFeatureResult, error) {
	if query.UserID == "" || query.CommunityID == "" || query.Feature == "" {
		return nil, apperrors.NewValidationError("user, community and feature are required")
	}

	result := &HasFeatureResult{Feature: query.Feature}

	role, err := uc.resolver.roleOf(ctx, query.UserID, query.CommunityID)
	if err != nil {
		uc.logger.Errorw("failed to resolve role", "user_id", query.UserID, "community_id", query.CommunityID, "error", err)
		return nil, err
	}
	if role.BypassesTiers() {
		result.Allowed = true
		result.Reason = ReasonRole
		return result, nil
	}

	e, err := uc.resolver.entitlement(ctx, query.UserID, query.CommunityID)
	if err != nil {
		uc.logger.Errorw("failed to resolve entitlement", "user_id", query.UserID, "community_id", query.CommunityID, "error", err)
		return nil, err
	}

	switch {
	case !e.IsActiveAt(uc.resolver.now()):
		result.Reason = ReasonNoMembership
	case slices.Contains(e.Features, query.Feature):
		result.Allowed = true
		result.Reason = ReasonTierFeature
	default:
		result.Reason = ReasonNotInTier
	}
	return result, nil
}
