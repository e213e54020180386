package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/tribe-inc/tribe/internal/domain/transaction"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

type GetTransactionStatusQuery struct {
	UserID        string
	TransactionID string
}

// TransactionStatusDTO is the client-visible view of a transaction.
type TransactionStatusDTO struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Provider      string    `json:"provider"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Terminal      bool      `json:"terminal"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type GetTransactionStatusUseCase struct {
	transactionRepo transaction.Repository
	logger          logger.Interface
}

func NewGetTransactionStatusUseCase(transactionRepo transaction.Repository, logger logger.Interface) *GetTransactionStatusUseCase {
	return &GetTransactionStatusUseCase{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// Execute returns the caller's own transaction. Another user's transaction
// is reported as not found.
func (uc *GetTransactionStatusUseCase) Execute(ctx context.Context, query GetTransactionStatusQuery) (*TransactionStatusDTO, error) {
	if query.TransactionID == "" {
		return nil, apperrors.NewValidationError("transaction id is required")
	}

	tx, err := uc.transactionRepo.GetByID(ctx, query.TransactionID)
	if err != nil {
		uc.logger.Errorw("failed to get transaction", "transaction_id", query.TransactionID, "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil || tx.UserID() != query.UserID {
		return nil, apperrors.NewNotFoundError("Transaction not found")
	}

	dto := &TransactionStatusDTO{
		ID:        tx.ID(),
		Status:    tx.Status().String(),
		Amount:    tx.Amount().AmountMinor(),
		Currency:  tx.Amount().Currency(),
		Provider:  tx.Provider().String(),
		Terminal:  tx.Status().IsTerminal(),
		CreatedAt: tx.CreatedAt(),
		UpdatedAt: tx.UpdatedAt(),
	}
	if reason := tx.FailureReason(); reason != nil {
		dto.FailureReason = *reason
	}
	return dto, nil
}
