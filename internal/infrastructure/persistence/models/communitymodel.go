package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tribe-inc/tribe/internal/shared/constants"
)

type CommunityModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null;size:200"`
	Slug      string `gorm:"uniqueIndex;not null;size:100"`
	OwnerID   string `gorm:"not null;size:36;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CommunityModel) TableName() string {
	return constants.TableCommunities
}

type CommunityModeratorModel struct {
	CommunityID string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
}

func (CommunityModeratorModel) TableName() string {
	return constants.TableCommunityModerators
}

// SubscriptionTierModel stores prices in minor units and the ordered
// feature tokens as a JSON array.
type SubscriptionTierModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	ExternalID   int64  `gorm:"uniqueIndex;not null"`
	CommunityID  string `gorm:"not null;size:36;index"`
	Name         string `gorm:"not null;size:100"`
	MonthlyPrice int64  `gorm:"not null;default:0"`
	YearlyPrice  int64  `gorm:"not null;default:0"`
	Currency     string `gorm:"not null;size:3"`
	IsFree       bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null;default:true"`
	Features     datatypes.JSONSlice[string]
	ModeratedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SubscriptionTierModel) TableName() string {
	return constants.TableSubscriptionTiers
}
