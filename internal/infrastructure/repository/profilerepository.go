package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tribe-inc/tribe/internal/domain/portal"
	"github.com/tribe-inc/tribe/internal/domain/profile"
	"github.com/tribe-inc/tribe/internal/domain/referral"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/mappers"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
	"github.com/tribe-inc/tribe/internal/shared/biztime"
	"github.com/tribe-inc/tribe/internal/shared/db"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *ProfileRepository) GetByTelegramUserID(ctx context.Context, telegramUserID int64) (*profile.Profile, error) {
	return r.find(ctx, "telegram_user_id = ?", telegramUserID)
}

func (r *ProfileRepository) find(ctx context.Context, query string, arg any) (*profile.Profile, error) {
	var model models.ProfileModel

	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return mappers.ProfileToDomain(&model), nil
}

func (r *ProfileRepository) SetPortalPlan(ctx context.Context, userID, planID string) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.ProfileModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"portal_plan_id": planID,
			"updated_at":     biztime.NowUTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to set portal plan: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

type PortalPlanRepository struct {
	db *gorm.DB
}

func NewPortalPlanRepository(db *gorm.DB) *PortalPlanRepository {
	return &PortalPlanRepository{db: db}
}

func (r *PortalPlanRepository) GetByID(ctx context.Context, id string) (*portal.Plan, error) {
	var model models.PortalPlanModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portal plan: %w", err)
	}

	return mappers.PortalPlanToDomain(&model), nil
}

// ReferralRepository reads the referral_stats view.
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]referral.Stat, error) {
	var rows []models.ReferralStatModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("referrer_id = ?", referrerID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list referral stats: %w", err)
	}

	return mappers.ReferralStatsToDomain(rows), nil
}
