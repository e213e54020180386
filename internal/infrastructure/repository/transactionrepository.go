package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tribe-inc/tribe/internal/domain/transaction"
	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/mappers"
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
	"github.com/tribe-inc/tribe/internal/shared/db"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

type TransactionRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTransactionRepository(db *gorm.DB, logger logger.Interface) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	model := mappers.TransactionToModel(t)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isProviderPaymentConflict(err, t) {
			return transaction.ErrDuplicateProviderPayment
		}
		r.logger.Errorw("failed to create transaction", "transaction_id", t.ID(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// isProviderPaymentConflict reports whether err is a unique violation of
// (provider, provider_payment_id). Drivers name the violated index or its
// columns in the message.
func isProviderPaymentConflict(err error, t *transaction.Transaction) bool {
	if !apperrors.IsDuplicateError(err) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "idx_transactions_provider_payment") ||
		strings.Contains(msg, "transactions.provider_payment_id") {
		return true
	}
	return t.HasDerivedIdempotencyKey() && strings.Contains(msg, "idempotency_key")
}

// Update writes the mutable columns only while the stored row is pending, so
// a terminal transaction is never overwritten by a late writer.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	model := mappers.TransactionToModel(t)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", model.ID, vo.StatusPending.String()).
		Updates(map[string]any{
			"status":              model.Status,
			"provider_payment_id": model.ProviderPaymentID,
			"failure_reason":      model.FailureReason,
			"metadata":            model.Metadata,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		if isProviderPaymentConflict(result.Error, t) {
			return transaction.ErrDuplicateProviderPayment
		}
		r.logger.Errorw("failed to update transaction", "transaction_id", t.ID(), "error", result.Error)
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", transaction.ErrAlreadyTerminal, t.ID())
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	var model models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return mappers.TransactionToDomain(&model)
}

func (r *TransactionRepository) GetByProviderPaymentID(ctx context.Context, provider vo.Provider, providerPaymentID string) (*transaction.Transaction, error) {
	var model models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("provider = ? AND provider_payment_id = ?", provider.String(), providerPaymentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by provider payment id: %w", err)
	}

	return mappers.TransactionToDomain(&model)
}

func (r *TransactionRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	var rows []models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND created_at < ?", vo.StatusPending.String(), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	result := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		t, err := mappers.TransactionToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	return result, nil
}
