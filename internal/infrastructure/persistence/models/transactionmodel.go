package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tribe-inc/tribe/internal/shared/constants"
)

// TransactionModel is one payment attempt. (provider, provider_payment_id)
// is unique so a replayed webhook cannot insert a second row.
type TransactionModel struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	UserID             string  `gorm:"not null;size:36;index"`
	CommunityID        *string `gorm:"size:36;index"`
	SubscriptionTierID *string `gorm:"size:36"`
	Amount             int64   `gorm:"not null"`
	Currency           string  `gorm:"not null;size:3"`
	Status             string  `gorm:"not null;size:20;index:idx_transactions_status_created"`
	Provider           string  `gorm:"not null;size:32;uniqueIndex:idx_transactions_provider_payment"`
	ProviderPaymentID  *string `gorm:"size:191;uniqueIndex:idx_transactions_provider_payment"`
	IdempotencyKey     string  `gorm:"not null;size:191;uniqueIndex"`
	FailureReason      *string `gorm:"size:64"`
	Metadata           datatypes.JSONMap
	CreatedAt          time.Time `gorm:"index:idx_transactions_status_created"`
	UpdatedAt          time.Time
}

func (TransactionModel) TableName() string {
	return constants.TableTransactions
}
