package models

import (
	"time"

	"github.com/tribe-inc/tribe/internal/shared/constants"
)

// MembershipModel holds at most one row per (user, community).
type MembershipModel struct {
	ID                     uint      `gorm:"primarykey"`
	UserID                 string    `gorm:"not null;size:36;uniqueIndex:idx_memberships_user_community"`
	CommunityID            string    `gorm:"not null;size:36;uniqueIndex:idx_memberships_user_community"`
	TierID                 string    `gorm:"not null;size:36"`
	Status                 string    `gorm:"not null;size:20"`
	StartedAt              time.Time `gorm:"not null"`
	ExpiresAt              *time.Time
	RenewalPeriod          string  `gorm:"size:20"`
	ExternalSubscriptionID *string `gorm:"size:128"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (MembershipModel) TableName() string {
	return constants.TableMemberships
}
