package polar

import (
	"errors"
	"fmt"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/platformfee"
	"github.com/mz0in/polar/transaction"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("polar: not found")
	ErrAlreadyExists = errors.New("polar: already exists")
	ErrInvalidInput  = errors.New("polar: invalid input")

	// Store errors
	ErrStoreClosed       = errors.New("polar: store is closed")
	ErrTransactionFailed = errors.New("polar: store transaction failed")
	ErrMigrationFailed   = errors.New("polar: migration failed")

	// Domain errors, re-exported so callers can match without importing
	// every domain package.
	ErrAccountNotFound             = account.ErrNotFound
	ErrTransactionNotFound         = transaction.ErrNotFound
	ErrDanglingBalanceTransactions = platformfee.ErrDanglingBalanceTransactions
	ErrPayoutAmountTooLow          = platformfee.ErrPayoutAmountTooLow
	ErrCorrelationMismatch         = platformfee.ErrCorrelationMismatch
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("polar: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is any not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, account.ErrNotFound) ||
		errors.Is(err, transaction.ErrNotFound)
}
