package platformfee

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/transaction"
	"github.com/mz0in/polar/types"
)

// fakeLookup is an in-memory Lookup stub holding pre-resolved rows.
type fakeLookup struct {
	transactions map[string]*transaction.Transaction
	lastPayout   *transaction.Transaction
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{transactions: make(map[string]*transaction.Transaction)}
}

func (f *fakeLookup) add(txs ...*transaction.Transaction) {
	for _, t := range txs {
		f.transactions[t.ID.String()] = t
	}
}

func (f *fakeLookup) Get(_ context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	if t, ok := f.transactions[txID.String()]; ok {
		return t, nil
	}
	return nil, transaction.ErrNotFound
}

func (f *fakeLookup) GetByIncurredBy(_ context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error) {
	for _, t := range f.transactions {
		if t.Type == typ && t.IncurredByID == txID {
			return t, nil
		}
	}
	return nil, transaction.ErrNotFound
}

func (f *fakeLookup) LatestPayout(_ context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	if f.lastPayout != nil && f.lastPayout.AccountID == accountID {
		return f.lastPayout, nil
	}
	return nil, transaction.ErrNotFound
}

// balanceFixture builds a resolved payment (10000 usd, 500 processor fee)
// and the completed balance pair redistributing it to accountID.
func balanceFixture(lookup *fakeLookup, accountID id.AccountID, origin transaction.Origin) transaction.Pair {
	payment := &transaction.Transaction{
		Entity:        types.NewEntity(),
		ID:            id.NewTransactionID(),
		Type:          transaction.TypePayment,
		Processor:     transaction.ProcessorStripe,
		Amount:        types.USD(10000),
		AccountAmount: types.USD(10000),
		TaxAmount:     types.Zero("usd"),
		Origin:        origin,
	}
	processorFee := &transaction.Transaction{
		Entity:        types.NewEntity(),
		ID:            id.NewTransactionID(),
		Type:          transaction.TypeProcessorFee,
		Processor:     transaction.ProcessorStripe,
		Amount:        types.USD(-500),
		AccountAmount: types.USD(-500),
		TaxAmount:     types.Zero("usd"),
		IncurredByID:  payment.ID,
	}
	lookup.add(payment, processorFee)

	pair := transaction.NewBalancePair(payment, accountID, types.USD(10000))
	lookup.add(pair.Outgoing, pair.Incoming)
	return pair
}

func processorFeesAccount() *account.Account {
	return &account.Account{
		Entity:                  types.NewEntity(),
		ID:                      id.NewAccountID(),
		Processor:               account.ProcessorStripe,
		Status:                  account.StatusActive,
		Country:                 "US",
		Currency:                "usd",
		ProcessorFeesApplicable: true,
	}
}

func TestCreateFeesReversalBalancesDangling(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())
	accountID := id.NewAccountID()

	t.Run("unresolvable payment", func(t *testing.T) {
		pair := balanceFixture(lookup, accountID, transaction.Origin{})
		delete(lookup.transactions, pair.Outgoing.PaymentID.String())

		_, err := calc.CreateFeesReversalBalances(ctx, pair)
		if !errors.Is(err, ErrDanglingBalanceTransactions) {
			t.Fatalf("err = %v, want ErrDanglingBalanceTransactions", err)
		}
	})

	t.Run("no payment reference", func(t *testing.T) {
		pair := balanceFixture(lookup, accountID, transaction.Origin{})
		pair.Outgoing.PaymentID = id.Nil

		_, err := calc.CreateFeesReversalBalances(ctx, pair)
		if !errors.Is(err, ErrDanglingBalanceTransactions) {
			t.Fatalf("err = %v, want ErrDanglingBalanceTransactions", err)
		}
	})
}

func TestCreateFeesReversalBalancesCorrelationMismatch(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	pair := balanceFixture(lookup, id.NewAccountID(), transaction.Origin{})
	pair.Incoming.CorrelationKey = id.NewBalanceID()

	_, err := calc.CreateFeesReversalBalances(ctx, pair)
	if !errors.Is(err, ErrCorrelationMismatch) {
		t.Fatalf("err = %v, want ErrCorrelationMismatch", err)
	}
}

// assertFeePair checks the structural invariants of one reversal pair:
// outgoing leg negative and booked, incoming leg positive and unbooked,
// cross-links back to the source balance legs, zero sum.
func assertFeePair(t *testing.T, pair transaction.Pair, amount int64, feeType transaction.PlatformFeeType, balance transaction.Pair) {
	t.Helper()

	if pair.Outgoing.Amount.Amount != -amount {
		t.Errorf("outgoing amount = %d, want %d", pair.Outgoing.Amount.Amount, -amount)
	}
	if pair.Outgoing.AccountID != balance.Incoming.AccountID {
		t.Errorf("outgoing leg not booked to payee account")
	}
	if pair.Outgoing.FeeType != feeType {
		t.Errorf("outgoing fee type = %q, want %q", pair.Outgoing.FeeType, feeType)
	}
	if pair.Outgoing.IncurredByID != balance.Incoming.ID {
		t.Errorf("outgoing leg should be incurred by the balance incoming leg")
	}

	if pair.Incoming.Amount.Amount != amount {
		t.Errorf("incoming amount = %d, want %d", pair.Incoming.Amount.Amount, amount)
	}
	if !pair.Incoming.AccountID.IsNil() {
		t.Errorf("incoming leg must be unbooked")
	}
	if pair.Incoming.FeeType != feeType {
		t.Errorf("incoming fee type = %q, want %q", pair.Incoming.FeeType, feeType)
	}
	if pair.Incoming.IncurredByID != balance.Outgoing.ID {
		t.Errorf("incoming leg should be incurred by the balance outgoing leg")
	}

	if !pair.Sum().IsZero() {
		t.Errorf("pair sum = %v, want zero", pair.Sum())
	}
	if pair.Outgoing.CorrelationKey.IsNil() || pair.Outgoing.CorrelationKey != pair.Incoming.CorrelationKey {
		t.Errorf("pair legs must share a fresh correlation key")
	}
}

func TestCreateFeesReversalBalancesPledge(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	origin := transaction.PledgeOrigin(id.NewPledgeID())
	balance := balanceFixture(lookup, id.NewAccountID(), origin)

	pairs, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("CreateFeesReversalBalances: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}

	// Processor fee passthrough comes first, then the 5% platform
	// commission, then the 0.5% invoice commission.
	assertFeePair(t, pairs[0], 500, transaction.FeePayment, balance)
	assertFeePair(t, pairs[1], 500, transaction.FeePlatform, balance)
	assertFeePair(t, pairs[2], 50, transaction.FeeInvoice, balance)
}

func TestCreateFeesReversalBalancesIssueReward(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	origin := transaction.IssueRewardOrigin(id.NewIssueRewardID())
	balance := balanceFixture(lookup, id.NewAccountID(), origin)

	pairs, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("CreateFeesReversalBalances: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}
	assertFeePair(t, pairs[2], 50, transaction.FeeInvoice, balance)
}

func TestCreateFeesReversalBalancesSubscription(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	origin := transaction.SubscriptionOrigin(id.NewSubscriptionID())
	balance := balanceFixture(lookup, id.NewAccountID(), origin)

	pairs, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("CreateFeesReversalBalances: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}

	assertFeePair(t, pairs[0], 500, transaction.FeePayment, balance)
	assertFeePair(t, pairs[1], 500, transaction.FeePlatform, balance)
	assertFeePair(t, pairs[2], 50, transaction.FeeSubscription, balance)
}

func TestCreateFeesReversalBalancesNoOrigin(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	balance := balanceFixture(lookup, id.NewAccountID(), transaction.Origin{})

	// A transfer whose payment carries no origin cannot be priced; it must
	// surface as dangling with nothing emitted, not yield a partial fee set.
	pairs, err := calc.CreateFeesReversalBalances(ctx, balance)
	if !errors.Is(err, ErrDanglingBalanceTransactions) {
		t.Fatalf("err = %v, want ErrDanglingBalanceTransactions", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("len(pairs) = %d, want 0", len(pairs))
	}
}

func TestCreateFeesReversalBalancesZeroCommissionOmitted(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()

	policy := DefaultPolicy()
	policy.PlatformFeeBasisPoints = 0
	calc := NewCalculator(lookup, policy)

	origin := transaction.PledgeOrigin(id.NewPledgeID())
	balance := balanceFixture(lookup, id.NewAccountID(), origin)

	pairs, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("CreateFeesReversalBalances: %v", err)
	}
	// Zero-amount fees are omitted; relative order of the rest holds.
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(pairs))
	}
	assertFeePair(t, pairs[0], 500, transaction.FeePayment, balance)
	assertFeePair(t, pairs[1], 50, transaction.FeeInvoice, balance)
}

func TestCreateFeesReversalBalancesNotIdempotent(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	balance := balanceFixture(lookup, id.NewAccountID(), transaction.PledgeOrigin(id.NewPledgeID()))

	first, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("first invocation: %v", err)
	}
	second, err := calc.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		t.Fatalf("second invocation: %v", err)
	}

	// Double invocation is the caller's responsibility to prevent: the
	// engine hands back independent rows every time.
	if len(first) != len(second) {
		t.Fatalf("invocations disagree on pair count: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Outgoing.ID == second[i].Outgoing.ID {
			t.Errorf("pair %d: duplicate outgoing row ID across invocations", i)
		}
		if first[i].Outgoing.CorrelationKey == second[i].Outgoing.CorrelationKey {
			t.Errorf("pair %d: correlation key reused across invocations", i)
		}
	}
}

func TestCreatePayoutFeesBalancesNotApplicable(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newFakeLookup(), DefaultPolicy())

	acct := processorFeesAccount()
	acct.ProcessorFeesApplicable = false

	amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("CreatePayoutFeesBalances: %v", err)
	}
	if amount != 10000 {
		t.Errorf("amount = %d, want 10000", amount)
	}
	if len(pairs) != 0 {
		t.Errorf("len(pairs) = %d, want 0", len(pairs))
	}
}

func TestCreatePayoutFeesBalancesNotStripe(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newFakeLookup(), DefaultPolicy())

	acct := processorFeesAccount()
	acct.Processor = account.ProcessorOpenCollective

	amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("CreatePayoutFeesBalances: %v", err)
	}
	if amount != 10000 || len(pairs) != 0 {
		t.Errorf("got (%d, %d pairs), want passthrough", amount, len(pairs))
	}
}

func TestCreatePayoutFeesBalancesAmountTooLow(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newFakeLookup(), DefaultPolicy())

	_, pairs, err := calc.CreatePayoutFeesBalances(ctx, processorFeesAccount(), 1)
	if !errors.Is(err, ErrPayoutAmountTooLow) {
		t.Fatalf("err = %v, want ErrPayoutAmountTooLow", err)
	}
	if len(pairs) != 0 {
		t.Errorf("no fee rows may be constructed on failure, got %d", len(pairs))
	}

	var tooLow *PayoutAmountTooLowError
	if !errors.As(err, &tooLow) {
		t.Fatalf("err should carry PayoutAmountTooLowError details")
	}
	if tooLow.Amount != 1 || tooLow.Minimum != DefaultPolicy().MinimumPayoutAmount {
		t.Errorf("details = %+v", tooLow)
	}
}

// assertPayoutFeePair checks one payout-time fee pair: booked negative
// outgoing leg, unbooked positive incoming leg, legs cross-linked.
func assertPayoutFeePair(t *testing.T, pair transaction.Pair, feeType transaction.PlatformFeeType, accountID id.AccountID) {
	t.Helper()

	if pair.Outgoing.FeeType != feeType || pair.Incoming.FeeType != feeType {
		t.Errorf("fee type = (%q, %q), want %q", pair.Outgoing.FeeType, pair.Incoming.FeeType, feeType)
	}
	if pair.Outgoing.AccountID != accountID {
		t.Errorf("outgoing leg not booked to account")
	}
	if !pair.Incoming.AccountID.IsNil() {
		t.Errorf("incoming leg must be unbooked")
	}
	if !pair.Outgoing.Amount.IsNegative() || !pair.Incoming.Amount.IsPositive() {
		t.Errorf("legs = (%v, %v), want negative outgoing and positive incoming",
			pair.Outgoing.Amount, pair.Incoming.Amount)
	}
	if !pair.Sum().IsZero() {
		t.Errorf("pair sum = %v, want zero", pair.Sum())
	}
	if pair.Outgoing.IncurredByID != pair.Incoming.ID || pair.Incoming.IncurredByID != pair.Outgoing.ID {
		t.Errorf("payout fee legs must cross-link each other")
	}
}

func TestCreatePayoutFeesBalancesNoPriorPayout(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name      string
		payoutAge time.Duration
	}{
		{"never paid out", 0},
		{"last payout outside window", 31 * 24 * time.Hour},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lookup := newFakeLookup()
			calc := NewCalculator(lookup, DefaultPolicy())
			acct := processorFeesAccount()

			if tc.payoutAge > 0 {
				lookup.lastPayout = payoutTransaction(acct, time.Now().UTC().Add(-tc.payoutAge))
			}

			amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
			if err != nil {
				t.Fatalf("CreatePayoutFeesBalances: %v", err)
			}
			if len(pairs) != 2 {
				t.Fatalf("len(pairs) = %d, want 2", len(pairs))
			}

			assertPayoutFeePair(t, pairs[0], transaction.FeeAccount, acct.ID)
			assertPayoutFeePair(t, pairs[1], transaction.FeePayout, acct.ID)

			// $2.00 account fee, then 0.25% of $98.00 raised to the
			// $0.25 floor. Exact integer arithmetic.
			if pairs[0].Outgoing.Amount.Amount != -200 {
				t.Errorf("account fee = %d, want -200", pairs[0].Outgoing.Amount.Amount)
			}
			if pairs[1].Outgoing.Amount.Amount != -25 {
				t.Errorf("payout fee = %d, want -25", pairs[1].Outgoing.Amount.Amount)
			}
			if want := int64(10000 - 200 - 25); amount != want {
				t.Errorf("amount = %d, want %d", amount, want)
			}
		})
	}
}

func TestCreatePayoutFeesBalancesRecentPayout(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())
	acct := processorFeesAccount()

	lookup.lastPayout = payoutTransaction(acct, time.Now().UTC().Add(-7*24*time.Hour))

	amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("CreatePayoutFeesBalances: %v", err)
	}

	// A payout 7 days ago already covered the period: only the account
	// fee applies.
	if len(pairs) != 1 {
		t.Fatalf("len(pairs) = %d, want 1", len(pairs))
	}
	assertPayoutFeePair(t, pairs[0], transaction.FeeAccount, acct.ID)
	if want := int64(10000 - 200); amount != want {
		t.Errorf("amount = %d, want %d", amount, want)
	}
}

func TestCreatePayoutFeesBalancesCrossBorder(t *testing.T) {
	ctx := context.Background()
	lookup := newFakeLookup()
	calc := NewCalculator(lookup, DefaultPolicy())

	acct := processorFeesAccount()
	acct.Country = "FR"
	acct.Currency = "eur"

	amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("CreatePayoutFeesBalances: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}

	assertPayoutFeePair(t, pairs[0], transaction.FeeAccount, acct.ID)
	assertPayoutFeePair(t, pairs[1], transaction.FeeCrossBorderTransfer, acct.ID)
	assertPayoutFeePair(t, pairs[2], transaction.FeePayout, acct.ID)

	// 10000 − 200 account fee − 1% of 9800 − payout floor.
	if pairs[1].Outgoing.Amount.Amount != -98 {
		t.Errorf("cross-border fee = %d, want -98", pairs[1].Outgoing.Amount.Amount)
	}
	if want := int64(10000 - 200 - 98 - 25); amount != want {
		t.Errorf("amount = %d, want %d", amount, want)
	}

	// Fee rows settle in the account's currency, not the platform's.
	for i, pair := range pairs {
		for _, leg := range pair.Transactions() {
			if leg.Amount.Currency != "eur" {
				t.Errorf("pair %d: currency = %q, want eur", i, leg.Amount.Currency)
			}
		}
	}
}

func TestCreatePayoutFeesBalancesFreePayoutAccount(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newFakeLookup(), DefaultPolicy())

	acct := processorFeesAccount()
	acct.FreePayout = true

	amount, pairs, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("CreatePayoutFeesBalances: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("len(pairs) = %d, want 1", len(pairs))
	}
	assertPayoutFeePair(t, pairs[0], transaction.FeePayout, acct.ID)
	if want := int64(10000 - 25); amount != want {
		t.Errorf("amount = %d, want %d", amount, want)
	}
}

func TestCreatePayoutFeesBalancesNotIdempotent(t *testing.T) {
	ctx := context.Background()
	calc := NewCalculator(newFakeLookup(), DefaultPolicy())
	acct := processorFeesAccount()

	_, first, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("first invocation: %v", err)
	}
	_, second, err := calc.CreatePayoutFeesBalances(ctx, acct, 10000)
	if err != nil {
		t.Fatalf("second invocation: %v", err)
	}

	for i := range first {
		if first[i].Outgoing.ID == second[i].Outgoing.ID {
			t.Errorf("pair %d: duplicate row ID across invocations", i)
		}
	}
}

func payoutTransaction(acct *account.Account, createdAt time.Time) *transaction.Transaction {
	tx := &transaction.Transaction{
		Entity:        types.NewEntity(),
		ID:            id.NewTransactionID(),
		Type:          transaction.TypePayout,
		Processor:     transaction.ProcessorStripe,
		Amount:        types.USD(-10000),
		AccountAmount: types.USD(-10000),
		TaxAmount:     types.Zero("usd"),
		AccountID:     acct.ID,
	}
	tx.CreatedAt = createdAt
	tx.UpdatedAt = createdAt
	return tx
}
