package mappers

import (
	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/domain/portal"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/referral"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
)

func CommunityToDomain(model *models.CommunityModel) *community.Community {
	return &community.Community{
		ID:      model.ID,
		Name:    model.Name,
		Slug:    model.Slug,
		OwnerID: model.OwnerID,
	}
}

func TierToDomain(model *models.SubscriptionTierModel) *community.Tier {
	return community.ReconstructTier(community.TierParams{
		ID:           model.ID,
		ExternalID:   model.ExternalID,
		CommunityID:  model.CommunityID,
		Name:         model.Name,
		MonthlyPrice: model.MonthlyPrice,
		YearlyPrice:  model.YearlyPrice,
		Currency:     model.Currency,
		IsFree:       model.IsFree,
		IsActive:     model.IsActive,
		Features:     []string(model.Features),
		ModeratedAt:  model.ModeratedAt,
	})
}

func ProfileToDomain(model *models.ProfileModel) *profile.Profile {
	return &profile.Profile{
		ID:             model.ID,
		TelegramUserID: model.TelegramUserID,
		DisplayName:    model.DisplayName,
		PortalPlanID:   model.PortalPlanID,
		ReferredBy:     model.ReferredBy,
	}
}

func PortalPlanToDomain(model *models.PortalPlanModel) *portal.Plan {
	return &portal.Plan{
		ID:       model.ID,
		Name:     model.Name,
		Price:    model.Price,
		Currency: model.Currency,
		IsActive: model.IsActive,
	}
}

func ReferralStatsToDomain(rows []models.ReferralStatModel) []referral.Stat {
	stats := make([]referral.Stat, len(rows))
	for i, row := range rows {
		stats[i] = referral.Stat{
			ReferrerID: row.ReferrerID,
			ReferredID: row.ReferredID,
			IsPaying:   row.IsPaying,
		}
	}
	return stats
}
