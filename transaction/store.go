package transaction

import (
	"context"
	"errors"

	"github.com/mz0in/polar/id"
)

// ErrNotFound is returned by stores when no row matches a lookup.
var ErrNotFound = errors.New("transaction: not found")

// Store is the persistence surface for ledger rows. Rows are append-only:
// there are no update or delete methods.
type Store interface {
	Create(ctx context.Context, t *Transaction) error

	// CreatePairs persists every leg of the given pairs as one atomic unit.
	CreatePairs(ctx context.Context, pairs []Pair) error

	Get(ctx context.Context, txID id.TransactionID) (*Transaction, error)
	List(ctx context.Context, opts ListOpts) ([]*Transaction, error)

	// GetByIncurredBy returns the row of the given type whose IncurredByID
	// points at txID. Used to find the processor fee attached to a payment.
	GetByIncurredBy(ctx context.Context, txID id.TransactionID, typ Type) (*Transaction, error)

	// LatestPayout returns the most recently created payout-type row booked
	// to the account.
	LatestPayout(ctx context.Context, accountID id.AccountID) (*Transaction, error)

	// AccountBalance sums AccountAmount over every row booked to the
	// account, in the account's settlement currency minor units.
	AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error)
}

// ListOpts filters transaction listings. Zero fields are ignored.
type ListOpts struct {
	AccountID      id.AccountID
	Type           Type
	FeeType        PlatformFeeType
	CorrelationKey id.BalanceID
	PaymentID      id.TransactionID
	Limit          int
	Offset         int
}
