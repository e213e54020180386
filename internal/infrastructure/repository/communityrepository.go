package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tribe-inc/tribe/internal/domain/community"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/mappers"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
	"github.com/tribe-inc/tribe/internal/shared/db"
)

type CommunityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

func (r *CommunityRepository) GetByID(ctx context.Context, id string) (*community.Community, error) {
	var model models.CommunityModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get community: %w", err)
	}

	return mappers.CommunityToDomain(&model), nil
}

func (r *CommunityRepository) GetTier(ctx context.Context, tierID string) (*community.Tier, error) {
	return r.findTier(ctx, "id = ?", tierID)
}

func (r *CommunityRepository) GetTierByExternalID(ctx context.Context, externalID int64) (*community.Tier, error) {
	return r.findTier(ctx, "external_id = ?", externalID)
}

func (r *CommunityRepository) findTier(ctx context.Context, query string, arg any) (*community.Tier, error) {
	var model models.SubscriptionTierModel

	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription tier: %w", err)
	}

	return mappers.TierToDomain(&model), nil
}

// GetRole reports owner before moderator. An unknown community yields RoleNone.
func (r *CommunityRepository) GetRole(ctx context.Context, communityID, userID string) (community.Role, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var owners int64
	if err := tx.Model(&models.CommunityModel{}).
		Where("id = ? AND owner_id = ?", communityID, userID).
		Count(&owners).Error; err != nil {
		return community.RoleNone, fmt.Errorf("failed to check community owner: %w", err)
	}
	if owners > 0 {
		return community.RoleOwner, nil
	}

	var moderators int64
	if err := tx.Model(&models.CommunityModeratorModel{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&moderators).Error; err != nil {
		return community.RoleNone, fmt.Errorf("failed to check community moderator: %w", err)
	}
	if moderators > 0 {
		return community.RoleModerator, nil
	}

	return community.RoleNone, nil
}
