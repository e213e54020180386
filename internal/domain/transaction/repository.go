package transaction

import (
	"context"
	"time"

	vo "github.com/tribe-inc/tribe/internal/domain/transaction/valueobjects"
)

type Repository interface {
	// Create inserts a new transaction. It returns ErrDuplicateProviderPayment
	// when (provider, provider payment id) is already recorded.
	Create(ctx context.Context, t *Transaction) error

	// Update persists status, provider payment id, failure reason and metadata.
	// The write only applies while the stored row is still pending; otherwise
	// ErrAlreadyTerminal is returned.
	Update(ctx context.Context, t *Transaction) error

	// GetByID returns nil, nil when the transaction does not exist.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// GetByProviderPaymentID returns nil, nil when nothing matches.
	GetByProviderPaymentID(ctx context.Context, provider vo.Provider, providerPaymentID string) (*Transaction, error)

	// ListPendingCreatedBefore returns up to limit pending transactions older than cutoff.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Transaction, error)
}
