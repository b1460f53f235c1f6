// Package platformfee computes the secondary ledger entries representing
// platform fees on balance transfers and payouts.
//
// The two calculators are synchronous pure computations over their inputs
// plus one read each through Lookup. They construct transaction pairs but
// never persist them; writing both legs atomically is the caller's job.
// They are deliberately not idempotent: invoking one twice with identical
// inputs yields two independent sets of fee rows, so callers must serialize
// per account and run reversals at most once per correlation key.
package platformfee

import (
	"context"
	"errors"
	"time"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/transaction"
	"github.com/mz0in/polar/types"
)

// Lookup is the read-only transaction access the calculators depend on.
// transaction.Store satisfies it.
type Lookup interface {
	Get(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error)
	GetByIncurredBy(ctx context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error)
	LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error)
}

// Calculator derives platform fee pairs from balance transfers and payouts.
type Calculator struct {
	lookup Lookup
	policy Policy
	now    func() time.Time
}

// NewCalculator creates a Calculator reading through lookup under the
// given fee policy.
func NewCalculator(lookup Lookup, policy Policy, opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		lookup: lookup,
		policy: policy,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithClock replaces the wall clock, pinning "now" in tests.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		c.now = now
	}
}

// Policy returns the fee policy the calculator applies.
func (c *Calculator) Policy() Policy { return c.policy }

// CreateFeesReversalBalances walks the costs recorded against the payment
// behind a completed balance transfer and synthesizes, per cost, a pair
// moving it from the platform onto the payee account's ledger.
//
// Emission order is fixed and significant: processor fee passthrough
// first (when one was recorded), platform commission second, then the
// origin-specific commission.
func (c *Calculator) CreateFeesReversalBalances(ctx context.Context, balance transaction.Pair) ([]transaction.Pair, error) {
	outgoing, incoming := balance.Outgoing, balance.Incoming
	if outgoing == nil || incoming == nil {
		return nil, ErrCorrelationMismatch
	}
	if outgoing.CorrelationKey.IsNil() || outgoing.CorrelationKey != incoming.CorrelationKey {
		return nil, ErrCorrelationMismatch
	}

	if outgoing.PaymentID.IsNil() {
		return nil, ErrDanglingBalanceTransactions
	}
	payment, err := c.lookup.Get(ctx, outgoing.PaymentID)
	if err != nil {
		return nil, errors.Join(ErrDanglingBalanceTransactions, err)
	}

	// Origin of the transferred funds, falling back to the payment's.
	// A transfer nothing originated cannot be priced: surface it instead
	// of charging a partial fee set.
	origin := outgoing.Origin
	if origin.IsZero() {
		origin = payment.Origin
	}
	if origin.IsZero() {
		return nil, ErrDanglingBalanceTransactions
	}

	accountID := incoming.AccountID

	var pairs []transaction.Pair
	appendFee := func(fee types.Money, feeType transaction.PlatformFeeType) {
		pairs = append(pairs, transaction.NewFeePair(fee, feeType, accountID, incoming.ID, outgoing.ID))
	}

	// Processor fee passthrough: the fee the processor charged on the
	// original payment, recorded as its own row at payment time.
	processorFee, err := c.lookup.GetByIncurredBy(ctx, payment.ID, transaction.TypeProcessorFee)
	switch {
	case err == nil:
		appendFee(processorFee.Amount.Abs(), transaction.FeePayment)
	case !errors.Is(err, transaction.ErrNotFound):
		return nil, err
	}

	// Platform commission, computed fresh from the payment amount.
	platformFee := payment.Amount.BasisPoints(c.policy.PlatformFeeBasisPoints)
	if !platformFee.IsZero() {
		appendFee(platformFee, transaction.FeePlatform)
	}

	// Origin-specific commission, keyed on where the transferred funds
	// came from.
	switch origin.Kind {
	case transaction.OriginPledge, transaction.OriginIssueReward:
		fee := payment.Amount.BasisPoints(c.policy.InvoiceFeeBasisPoints)
		if !fee.IsZero() {
			appendFee(fee, transaction.FeeInvoice)
		}
	case transaction.OriginSubscription:
		fee := payment.Amount.BasisPoints(c.policy.SubscriptionFeeBasisPoints)
		if !fee.IsZero() {
			appendFee(fee, transaction.FeeSubscription)
		}
	}

	return pairs, nil
}

// CreatePayoutFeesBalances determines the fees due on paying out
// balanceAmount (minor units) to the account and returns the adjusted
// payable amount alongside the fee pairs, in the fixed order account fee,
// cross-border transfer fee, payout fee. Accounts without applicable
// processor fees, or on a processor that has none, pass through untouched.
func (c *Calculator) CreatePayoutFeesBalances(ctx context.Context, acct *account.Account, balanceAmount int64) (int64, []transaction.Pair, error) {
	if !acct.ProcessorFeesApplicable || acct.Processor != account.ProcessorStripe {
		return balanceAmount, nil, nil
	}

	if balanceAmount < c.policy.MinimumPayoutAmount {
		return balanceAmount, nil, &PayoutAmountTooLowError{
			Amount:  balanceAmount,
			Minimum: c.policy.MinimumPayoutAmount,
		}
	}

	// Fees settle in the account's currency; flat policy amounts are
	// denominated in whatever that is.
	currency := acct.Currency
	if currency == "" {
		currency = c.policy.PlatformCurrency
	}
	remaining := types.New(balanceAmount, currency)

	var pairs []transaction.Pair
	applyFee := func(fee types.Money, feeType transaction.PlatformFeeType) {
		pairs = append(pairs, transaction.NewFeePair(fee, feeType, acct.ID, id.Nil, id.Nil))
		remaining = remaining.Subtract(fee)
	}

	// Fixed account fee, waived for accounts grandfathered into free
	// payouts.
	if !acct.FreePayout && c.policy.AccountFee > 0 {
		applyFee(types.New(c.policy.AccountFee, currency), transaction.FeeAccount)
	}

	// Cross-border transfer fee on accounts settling outside the
	// platform jurisdiction.
	if acct.Country != c.policy.PlatformCountry {
		fee := remaining.BasisPoints(c.policy.CrossBorderFeeBasisPoints)
		if !fee.IsZero() {
			applyFee(fee, transaction.FeeCrossBorderTransfer)
		}
	}

	// Payout fee, unless a payout within the trailing window already
	// covered the period.
	free, err := c.payoutWindowCovered(ctx, acct.ID)
	if err != nil {
		return balanceAmount, nil, err
	}
	if !free {
		fee := remaining.
			BasisPoints(c.policy.PayoutFeeBasisPoints).
			AtLeast(types.New(c.policy.PayoutFeeMinimum, currency))
		applyFee(fee, transaction.FeePayout)
	}

	return remaining.Amount, pairs, nil
}

// payoutWindowCovered reports whether the account received a payout
// within the trailing window.
func (c *Calculator) payoutWindowCovered(ctx context.Context, accountID id.AccountID) (bool, error) {
	last, err := c.lookup.LatestPayout(ctx, accountID)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return c.now().Sub(last.CreatedAt) <= c.policy.PayoutWindow(), nil
}
