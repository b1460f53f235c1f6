// Package sqlite provides a SQLite store implementation using the pure-Go
// modernc.org/sqlite driver, suitable for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	ledgerstore "github.com/mz0in/polar/store"
	"github.com/mz0in/polar/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("polar/sqlite: open %s: %w", path, err)
	}

	// SQLite allows one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("polar/sqlite: set pragma: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("polar/sqlite: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, processor, status, country, currency,
			processor_fees_applicable, free_payout, processor_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Processor), string(a.Status), a.Country, a.Currency,
		a.ProcessorFeesApplicable, a.FreePayout, a.ProcessorID,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("polar/sqlite: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, processor, status, country, currency,
		       processor_fees_applicable, free_payout, processor_id,
		       created_at, updated_at
		FROM accounts WHERE id = ?`, accountID)

	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	query := `
		SELECT id, processor, status, country, currency,
		       processor_fees_applicable, free_payout, processor_id,
		       created_at, updated_at
		FROM accounts`
	where, args := []string{}, []any{}
	if opts.Processor != "" {
		where = append(where, "processor = ?")
		args = append(args, string(opts.Processor))
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("polar/sqlite: list accounts: %w", err)
	}
	defer rows.Close()

	result := make([]*account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET
			processor = ?, status = ?, country = ?, currency = ?,
			processor_fees_applicable = ?, free_payout = ?, processor_id = ?,
			updated_at = ?
		WHERE id = ?`,
		string(a.Processor), string(a.Status), a.Country, a.Currency,
		a.ProcessorFeesApplicable, a.FreePayout, a.ProcessorID,
		a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("polar/sqlite: update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// ==================== Transaction Store ====================

const transactionColumns = `
	id, type, processor, amount, currency, account_amount, account_currency,
	tax_amount, tax_currency, origin_kind, origin_id, account_id,
	incurred_by_id, payment_id, correlation_key, fee_type,
	created_at, updated_at`

func (s *Store) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	return s.insertTransaction(ctx, s.db, t)
}

func (s *Store) CreateTransactionPairs(ctx context.Context, pairs []transaction.Pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("polar/sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, p := range pairs {
		for _, t := range p.Transactions() {
			if err := s.insertTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertTransaction(ctx context.Context, db execer, t *transaction.Transaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), string(t.Processor),
		t.Amount.Amount, t.Amount.Currency,
		t.AccountAmount.Amount, t.AccountAmount.Currency,
		t.TaxAmount.Amount, t.TaxAmount.Currency,
		string(t.Origin.Kind), t.Origin.ID, t.AccountID,
		t.IncurredByID, t.PaymentID, t.CorrelationKey, string(t.FeeType),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("polar/sqlite: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, txID)

	return scanTransaction(row)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	where, args := []string{}, []any{}
	if !opts.AccountID.IsNil() {
		where = append(where, "account_id = ?")
		args = append(args, opts.AccountID)
	}
	if opts.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(opts.Type))
	}
	if opts.FeeType != "" {
		where = append(where, "fee_type = ?")
		args = append(args, string(opts.FeeType))
	}
	if !opts.CorrelationKey.IsNil() {
		where = append(where, "correlation_key = ?")
		args = append(args, opts.CorrelationKey)
	}
	if !opts.PaymentID.IsNil() {
		where = append(where, "payment_id = ?")
		args = append(args, opts.PaymentID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("polar/sqlite: list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]*transaction.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) GetTransactionByIncurredBy(ctx context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE incurred_by_id = ? AND type = ?
		ORDER BY created_at LIMIT 1`, txID, string(typ))

	return scanTransaction(row)
}

func (s *Store) LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND account_id = ?
		ORDER BY created_at DESC LIMIT 1`,
		string(transaction.TypePayout), accountID)

	return scanTransaction(row)
}

func (s *Store) AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(account_amount), 0)
		FROM transactions WHERE account_id = ?`, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("polar/sqlite: account balance: %w", err)
	}
	return sum, nil
}

// ==================== Row scanning ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*account.Account, error) {
	var (
		a         account.Account
		processor string
		status    string
	)
	err := row.Scan(
		&a.ID, &processor, &status, &a.Country, &a.Currency,
		&a.ProcessorFeesApplicable, &a.FreePayout, &a.ProcessorID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("polar/sqlite: scan account: %w", err)
	}
	a.Processor = account.Processor(processor)
	a.Status = account.Status(status)
	return &a, nil
}

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var (
		t          transaction.Transaction
		typ        string
		processor  string
		originKind string
		feeType    string
	)
	err := row.Scan(
		&t.ID, &typ, &processor,
		&t.Amount.Amount, &t.Amount.Currency,
		&t.AccountAmount.Amount, &t.AccountAmount.Currency,
		&t.TaxAmount.Amount, &t.TaxAmount.Currency,
		&originKind, &t.Origin.ID, &t.AccountID,
		&t.IncurredByID, &t.PaymentID, &t.CorrelationKey, &feeType,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("polar/sqlite: scan transaction: %w", err)
	}
	t.Type = transaction.Type(typ)
	t.Processor = transaction.Processor(processor)
	t.Origin.Kind = transaction.OriginKind(originKind)
	t.FeeType = transaction.PlatformFeeType(feeType)
	return &t, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
