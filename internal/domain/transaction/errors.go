package transaction

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyTerminal is returned when a settled or failed transaction
	// would be mutated again.
	ErrAlreadyTerminal = errors.New("transaction already in terminal state")

	// ErrDuplicateProviderPayment is returned when (provider, provider payment id)
	// already exists. Webhook settlement treats it as a replay.
	ErrDuplicateProviderPayment = errors.New("provider payment already recorded")
)
