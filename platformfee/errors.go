package platformfee

import (
	"errors"
	"fmt"
)

// Sentinel errors for fee computation failures. Both indicate a
// precondition violation in caller-supplied state, never a transient
// fault: the engine does not retry them.
var (
	// ErrDanglingBalanceTransactions means a balance pair cannot be traced
	// back to a priced originating payment. Callers must surface it for
	// manual investigation, never drop it.
	ErrDanglingBalanceTransactions = errors.New("platformfee: balance transactions cannot be traced to a priced payment")

	// ErrPayoutAmountTooLow means a requested payout is below the
	// processor's minimum. No fee rows are constructed.
	ErrPayoutAmountTooLow = errors.New("platformfee: payout amount below processor minimum")

	// ErrCorrelationMismatch means the two legs handed to the reversal
	// calculator do not form one logical transfer.
	ErrCorrelationMismatch = errors.New("platformfee: balance legs do not share a correlation key")
)

// PayoutAmountTooLowError carries the rejected amount and the configured
// minimum. It matches ErrPayoutAmountTooLow under errors.Is.
type PayoutAmountTooLowError struct {
	Amount  int64
	Minimum int64
}

func (e *PayoutAmountTooLowError) Error() string {
	return fmt.Sprintf("platformfee: payout amount %d below minimum %d", e.Amount, e.Minimum)
}

func (e *PayoutAmountTooLowError) Unwrap() error { return ErrPayoutAmountTooLow }
