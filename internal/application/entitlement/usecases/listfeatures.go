package usecases

import (
	"context"
	"time"

	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// MembershipNone is reported when the user has never held a membership.
const MembershipNone = "none"

type ListFeaturesQuery struct {
	UserID      string
	CommunityID string
}

// FeatureAccessDTO summarizes what a user can do in a community. When
// BypassesTiers is set every gated feature is allowed regardless of Features.
type FeatureAccessDTO struct {
	CommunityID      string     `json:"community_id"`
	Role             string     `json:"role,omitempty"`
	BypassesTiers    bool       `json:"bypasses_tiers"`
	MembershipStatus string     `json:"membership_status"`
	Active           bool       `json:"active"`
	TierID           string     `json:"tier_id,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Features         []string   `json:"features"`
}

type ListFeaturesUseCase struct {
	resolver *Resolver
	logger   logger.Interface
}

func NewListFeaturesUseCase(resolver *Resolver, logger logger.Interface) *ListFeaturesUseCase {
	return &ListFeaturesUseCase{resolver: resolver, logger: logger}
}

func (uc *ListFeaturesUseCase) Execute(ctx context.Context, query ListFeaturesQuery) (*FeatureAccessDTO, error) {
	if query.UserID == "" || query.CommunityID == "" {
		return nil, apperrors.NewValidationError("user and community are required")
	}

	a, err := uc.resolver.resolve(ctx, query.UserID, query.CommunityID)
	if err != nil {
		uc.logger.Errorw("failed to resolve feature access", "user_id", query.UserID, "community_id", query.CommunityID, "error", err)
		return nil, err
	}

	dto := &FeatureAccessDTO{
		CommunityID:      query.CommunityID,
		Role:             string(a.role),
		BypassesTiers:    a.role.BypassesTiers(),
		MembershipStatus: MembershipNone,
		Active:           a.active,
		Features:         []string{},
	}
	if e := a.entitlement; !e.NotFound {
		dto.MembershipStatus = string(e.Status)
		dto.TierID = e.TierID
		dto.ExpiresAt = e.ExpiresAt
		if a.active {
			dto.Features = append(dto.Features, e.Features...)
		}
	}
	return dto, nil
}
