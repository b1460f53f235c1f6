// Package polar provides a double-entry platform fee ledger for Go applications.
//
// Polar is designed as a library, not a service. Import it directly into your Go
// application. It provides:
//
//   - Append-only double-entry transaction ledger with typed rows
//   - Balance transfers from platform payments onto payee accounts
//   - Fee reversal: processor, platform commission and origin fees moved
//     from the platform onto the payee's ledger after a transfer
//   - Payout-time fees: account, cross-border and payout fees with a
//     configurable free window after a recent payout
//   - Pluggable storage (memory, SQLite, Postgres, MongoDB)
//   - Hook system for observing balance and fee events
//   - Prometheus metrics via the observability hook
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/mz0in/polar"
//	    "github.com/mz0in/polar/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	e := polar.New(store)
//
//	// Start the engine (runs migrations, initializes hooks)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Transactions are immutable ledger rows. Payments and their processor
// fees are recorded as single rows:
//
//	payment := &transaction.Transaction{
//	    Type:      transaction.TypePayment,
//	    Processor: transaction.ProcessorStripe,
//	    Amount:    polar.USD(10000),
//	    Origin:    transaction.PledgeOrigin(pledgeID),
//	}
//	err := e.CreateTransaction(ctx, payment)
//
// Balance transfers move part of a payment onto a payee account as an
// atomic pair of rows sharing a correlation key:
//
//	pair, err := e.CreateBalancePair(ctx, payment.ID, accountID, 10000)
//
// Fee reversals charge the account for the costs the platform already
// bore on the payment:
//
//	fees, err := e.CreateFeesReversalBalances(ctx, pair)
//
// Payout fees run when the account withdraws its balance:
//
//	net, fees, err := e.CreatePayoutFeesBalances(ctx, accountID, balance)
//
// # Fee Policy
//
// Fee rates live in a platformfee.Policy. The defaults match a 5%
// platform commission with a 0.5% origin fee; override them with
// polar.WithPolicy or load a TOML file with platformfee.LoadPolicy.
//
// # Storage
//
// Four store backends ship with the library:
//
//   - store/memory: in-memory, for tests and prototyping
//   - store/sqlite: embedded SQLite, zero-dependency deployment
//   - store/postgres: PostgreSQL via pgx, for production
//   - store/mongo: MongoDB, document storage
//
// All backends implement the store.Store interface, so they are
// interchangeable.
package polar
