package account

import (
	"context"
	"errors"

	"github.com/mz0in/polar/id"
)

// ErrNotFound is returned by stores when no account matches a lookup.
var ErrNotFound = errors.New("account: not found")

type Store interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, accountID id.AccountID) (*Account, error)
	List(ctx context.Context, opts ListOpts) ([]*Account, error)
	Update(ctx context.Context, a *Account) error
}

// ListOpts filters account listings. Zero fields are ignored.
type ListOpts struct {
	Processor Processor
	Status    Status
	Limit     int
	Offset    int
}
