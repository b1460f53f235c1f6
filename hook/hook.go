// Package hook provides an extensible hook system for the ledger engine.
// Hooks observe lifecycle events (balance transfers, fee reversals, payout
// fee computation) to extend functionality without touching the engine.
package hook

import (
	"context"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/transaction"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// OnInit is called when the engine starts.
type OnInit interface {
	Hook
	OnInit(ctx context.Context) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// OnBalanceCreated is called when a balance transfer pair is recorded.
type OnBalanceCreated interface {
	Hook
	OnBalanceCreated(ctx context.Context, pair transaction.Pair) error
}

// OnFeesReversed is called when fee reversal pairs for a completed
// balance transfer have been computed and persisted.
type OnFeesReversed interface {
	Hook
	OnFeesReversed(ctx context.Context, balance transaction.Pair, fees []transaction.Pair) error
}

// OnPayoutFeesComputed is called when payout-time fees for an account
// have been computed and persisted. amount is the adjusted payable amount.
type OnPayoutFeesComputed interface {
	Hook
	OnPayoutFeesComputed(ctx context.Context, acct *account.Account, amount int64, fees []transaction.Pair) error
}

// OnPayoutBlocked is called when a payout is rejected before any fee
// row was constructed (e.g. the amount was below the processor minimum).
type OnPayoutBlocked interface {
	Hook
	OnPayoutBlocked(ctx context.Context, acct *account.Account, amount int64, reason error) error
}
