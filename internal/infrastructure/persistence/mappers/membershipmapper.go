package mappers

import (
	"fmt"

	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
)

func MembershipToModel(m *membership.Membership) *models.MembershipModel {
	return &models.MembershipModel{
		ID:                     m.ID(),
		UserID:                 m.UserID(),
		CommunityID:            m.CommunityID(),
		TierID:                 m.TierID(),
		Status:                 string(m.Status()),
		StartedAt:              m.StartedAt(),
		ExpiresAt:              m.ExpiresAt(),
		RenewalPeriod:          m.RenewalPeriod(),
		ExternalSubscriptionID: m.ExternalSubscriptionID(),
		CreatedAt:              m.CreatedAt(),
		UpdatedAt:              m.UpdatedAt(),
	}
}

func MembershipToDomain(model *models.MembershipModel) (*membership.Membership, error) {
	status := membership.Status(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid membership status: %s", model.Status)
	}

	return membership.Reconstruct(membership.ReconstructParams{
		ID:                     model.ID,
		UserID:                 model.UserID,
		CommunityID:            model.CommunityID,
		TierID:                 model.TierID,
		Status:                 status,
		StartedAt:              model.StartedAt,
		ExpiresAt:              model.ExpiresAt,
		RenewalPeriod:          model.RenewalPeriod,
		ExternalSubscriptionID: model.ExternalSubscriptionID,
		CreatedAt:              model.CreatedAt,
		UpdatedAt:              model.UpdatedAt,
	}), nil
}
