// Package store defines the unified persistence interface implemented by
// each backend (memory, sqlite, postgres, mongo).
package store

import (
	"context"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/transaction"
)

// Store is the unified storage interface for all ledger entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	UpdateAccount(ctx context.Context, a *account.Account) error

	// Transaction methods. Rows are append-only; there are no update or
	// delete methods.
	CreateTransaction(ctx context.Context, t *transaction.Transaction) error
	CreateTransactionPairs(ctx context.Context, pairs []transaction.Pair) error
	GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error)
	GetTransactionByIncurredBy(ctx context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error)
	LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error)
	AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
