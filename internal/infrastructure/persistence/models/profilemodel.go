package models

import (
	"time"

	"github.com/tribe-inc/tribe/internal/shared/constants"
)

type ProfileModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	TelegramUserID *int64  `gorm:"uniqueIndex"`
	DisplayName    string  `gorm:"size:200"`
	PortalPlanID   *string `gorm:"size:36"`
	ReferredBy     *string `gorm:"size:36;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ProfileModel) TableName() string {
	return constants.TableProfiles
}

type PortalPlanModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null;size:100"`
	Price     int64  `gorm:"not null;default:0"`
	Currency  string `gorm:"not null;size:3"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PortalPlanModel) TableName() string {
	return constants.TablePortalPlans
}

// ReferralStatModel reads the referral_stats view. It is never migrated as a table.
type ReferralStatModel struct {
	ReferrerID string
	ReferredID string
	IsPaying   bool
}

func (ReferralStatModel) TableName() string {
	return constants.ViewReferralStats
}
