package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
)

func TransactionToModel(t *transaction.Transaction) *models.TransactionModel {
	model := &models.TransactionModel{
		ID:                 t.ID(),
		UserID:             t.UserID(),
		CommunityID:        t.CommunityID(),
		SubscriptionTierID: t.SubscriptionTierID(),
		Amount:             t.Amount().AmountMinor(),
		Currency:           t.Amount().Currency(),
		Status:             t.Status().String(),
		Provider:           t.Provider().String(),
		ProviderPaymentID:  t.ProviderPaymentID(),
		IdempotencyKey:     t.IdempotencyKey(),
		FailureReason:      t.FailureReason(),
		CreatedAt:          t.CreatedAt(),
		UpdatedAt:          t.UpdatedAt(),
	}

	if metadata := t.Metadata(); len(metadata) > 0 {
		model.Metadata = datatypes.JSONMap(metadata)
	}

	return model
}

func TransactionToDomain(model *models.TransactionModel) (*transaction.Transaction, error) {
	status := vo.Status(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid transaction status: %s", model.Status)
	}

	provider := vo.Provider(model.Provider)
	if !provider.IsValid() {
		return nil, fmt.Errorf("invalid transaction provider: %s", model.Provider)
	}

	metadata := map[string]any(model.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return transaction.Reconstruct(transaction.ReconstructParams{
		ID:                 model.ID,
		UserID:             model.UserID,
		CommunityID:        model.CommunityID,
		SubscriptionTierID: model.SubscriptionTierID,
		Amount:             vo.NewMoney(model.Amount, model.Currency),
		Status:             status,
		Provider:           provider,
		ProviderPaymentID:  model.ProviderPaymentID,
		IdempotencyKey:     model.IdempotencyKey,
		FailureReason:      model.FailureReason,
		Metadata:           metadata,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}), nil
}
