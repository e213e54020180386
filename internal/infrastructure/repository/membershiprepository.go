package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tribe-inc/tribe/internal/domain/membership"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/mappers"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	"github.com/tribe-inc/tribe/internal/shared/db"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Upsert relies on the (user_id, community_id) unique index; concurrent
// settlements for the same pair converge on one row.
func (r *MembershipRepository) Upsert(ctx context.Context, m *membership.Membership) error {
	model := mappers.MembershipToModel(m)
	model.ID = 0

	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "community_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tier_id",
				"status",
				"started_at",
				"expires_at",
				"renewal_period",
				"external_subscription_id",
				"updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

func (r *MembershipRepository) GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*membership.Membership, error) {
	var model models.MembershipModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return mappers.MembershipToDomain(&model)
}

func (r *MembershipRepository) UpdateStatus(ctx context.Context, userID, communityID string, status membership.Status) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.MembershipModel{}).
		Where("user_id = ? AND community_id = ?", userID, communityID).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update membership status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
