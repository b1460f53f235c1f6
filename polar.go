package polar

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/hook"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/platformfee"
	"github.com/mz0in/polar/store"
	"github.com/mz0in/polar/transaction"
	"github.com/mz0in/polar/types"
)

// Engine is the main fee and balance ledger engine.
type Engine struct {
	store  store.Store
	hooks  *hook.Registry
	logger *slog.Logger

	// Configuration
	policy platformfee.Policy
	clock  []platformfee.CalculatorOption

	calculator *platformfee.Calculator
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		hooks:  hook.NewRegistry(),
		logger: slog.Default(),
		policy: platformfee.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.calculator = platformfee.NewCalculator(storeLookup{s}, e.policy, e.clock...)
	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.hooks.WithLogger(logger)
	}
}

// WithPolicy sets the fee policy.
func WithPolicy(p platformfee.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithHook registers a hook.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) {
		_ = e.hooks.Register(h) //nolint:errcheck // best-effort hook registration during init
	}
}

// WithClock replaces the calculators' wall clock, pinning "now" in tests.
func WithClock(opt platformfee.CalculatorOption) Option {
	return func(e *Engine) {
		e.clock = append(e.clock, opt)
	}
}

// storeLookup adapts the unified store to the calculators' read surface.
type storeLookup struct {
	s store.Store
}

func (l storeLookup) Get(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	return l.s.GetTransaction(ctx, txID)
}

func (l storeLookup) GetByIncurredBy(ctx context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error) {
	return l.s.GetTransactionByIncurredBy(ctx, txID, typ)
}

func (l storeLookup) LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	return l.s.LatestPayout(ctx, accountID)
}

// Start migrates the store and initializes hooks.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}

	e.hooks.EmitInit(ctx)

	e.logger.Info("engine started",
		"platform_fee_bps", e.policy.PlatformFeeBasisPoints,
		"account_fee", e.policy.AccountFee,
		"payout_window_days", e.policy.PayoutWindowDays,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.hooks.EmitShutdown(ctx)

	return e.store.Close()
}

// Policy returns the fee policy the engine applies.
func (e *Engine) Policy() platformfee.Policy { return e.policy }

// ──────────────────────────────────────────────────
// Account Management
// ──────────────────────────────────────────────────

// CreateAccount creates a new payee account.
func (e *Engine) CreateAccount(ctx context.Context, a *account.Account) error {
	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	if a.Status == "" {
		a.Status = account.StatusCreated
	}
	if a.Currency == "" {
		a.Currency = e.policy.PlatformCurrency
	}
	a.Entity = types.NewEntity()

	if err := e.store.CreateAccount(ctx, a); err != nil {
		return err
	}

	e.logger.Info("account created",
		"account_id", a.ID,
		"processor", a.Processor,
		"country", a.Country,
	)
	return nil
}

// GetAccount retrieves an account by ID.
func (e *Engine) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// ListAccounts lists accounts matching the given filters.
func (e *Engine) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	return e.store.ListAccounts(ctx, opts)
}

// UpdateAccount persists changes to an account.
func (e *Engine) UpdateAccount(ctx context.Context, a *account.Account) error {
	a.Touch()
	return e.store.UpdateAccount(ctx, a)
}

// ──────────────────────────────────────────────────
// Transaction Management
// ──────────────────────────────────────────────────

// CreateTransaction records a single ledger row (payment, processor fee,
// refund, dispute). Balance and fee rows should go through the pair APIs
// so both legs land atomically.
func (e *Engine) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	if t.ID.IsNil() {
		t.ID = id.NewTransactionID()
	}
	t.Entity = types.NewEntity()

	return e.store.CreateTransaction(ctx, t)
}

// GetTransaction retrieves a transaction by ID.
func (e *Engine) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	return e.store.GetTransaction(ctx, txID)
}

// ListTransactions lists transactions matching the given filters.
func (e *Engine) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	return e.store.ListTransactions(ctx, opts)
}

// AccountBalance returns the sum of every row booked to the account, in
// the account's settlement currency minor units.
func (e *Engine) AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	return e.store.AccountBalance(ctx, accountID)
}

// ──────────────────────────────────────────────────
// Balance Transfers
// ──────────────────────────────────────────────────

// CreateBalancePair moves amount of the payment onto the payee account:
// an outgoing leg on the platform side and an incoming leg booked to the
// account, written atomically under a fresh correlation key.
func (e *Engine) CreateBalancePair(ctx context.Context, paymentID id.TransactionID, accountID id.AccountID, amount int64) (transaction.Pair, error) {
	if amount <= 0 {
		return transaction.Pair{}, ValidationError{Field: "amount", Message: "must be positive"}
	}

	payment, err := e.store.GetTransaction(ctx, paymentID)
	if err != nil {
		return transaction.Pair{}, err
	}

	pair := transaction.NewBalancePair(payment, accountID, types.New(amount, payment.Amount.Currency))
	if err := e.store.CreateTransactionPairs(ctx, []transaction.Pair{pair}); err != nil {
		return transaction.Pair{}, err
	}

	e.hooks.EmitBalanceCreated(ctx, pair)
	e.logger.Info("balance pair created",
		"payment_id", paymentID,
		"account_id", accountID,
		"amount", amount,
		"correlation_key", pair.Incoming.CorrelationKey,
	)
	return pair, nil
}

// GetBalancePair reassembles the two legs of a balance transfer from its
// correlation key.
func (e *Engine) GetBalancePair(ctx context.Context, key id.BalanceID) (transaction.Pair, error) {
	rows, err := e.store.ListTransactions(ctx, transaction.ListOpts{
		Type:           transaction.TypeBalance,
		CorrelationKey: key,
	})
	if err != nil {
		return transaction.Pair{}, err
	}

	var pair transaction.Pair
	for _, row := range rows {
		if row.Amount.IsNegative() {
			pair.Outgoing = row
		} else {
			pair.Incoming = row
		}
	}
	if pair.Outgoing == nil || pair.Incoming == nil {
		return transaction.Pair{}, transaction.ErrNotFound
	}
	return pair, nil
}

// ──────────────────────────────────────────────────
// Platform Fees
// ──────────────────────────────────────────────────

// CreateFeesReversalBalances computes the fee reversal pairs for a
// completed balance transfer and persists every leg atomically.
func (e *Engine) CreateFeesReversalBalances(ctx context.Context, balance transaction.Pair) ([]transaction.Pair, error) {
	fees, err := e.calculator.CreateFeesReversalBalances(ctx, balance)
	if err != nil {
		return nil, err
	}

	if len(fees) > 0 {
		if err := e.store.CreateTransactionPairs(ctx, fees); err != nil {
			return nil, err
		}
	}

	e.hooks.EmitFeesReversed(ctx, balance, fees)
	e.logger.Info("fee reversal balances created",
		"account_id", balance.Incoming.AccountID,
		"correlation_key", balance.Incoming.CorrelationKey,
		"pairs", len(fees),
	)
	return fees, nil
}

// CreatePayoutFeesBalances runs the payout fee gauntlet for the account,
// persists the resulting fee pairs and returns the adjusted amount left
// to pay out.
func (e *Engine) CreatePayoutFeesBalances(ctx context.Context, accountID id.AccountID, balanceAmount int64) (int64, []transaction.Pair, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, nil, err
	}

	amount, fees, err := e.calculator.CreatePayoutFeesBalances(ctx, acct, balanceAmount)
	if err != nil {
		if errors.Is(err, platformfee.ErrPayoutAmountTooLow) {
			e.hooks.EmitPayoutBlocked(ctx, acct, balanceAmount, err)
			e.logger.Warn("payout blocked",
				"account_id", accountID,
				"amount", balanceAmount,
				"reason", err,
			)
		}
		return 0, nil, err
	}

	if len(fees) > 0 {
		if err := e.store.CreateTransactionPairs(ctx, fees); err != nil {
			return 0, nil, err
		}
	}

	e.hooks.EmitPayoutFeesComputed(ctx, acct, amount, fees)
	e.logger.Info("payout fees computed",
		"account_id", accountID,
		"gross_amount", balanceAmount,
		"net_amount", amount,
		"pairs", len(fees),
	)
	return amount, fees, nil
}
