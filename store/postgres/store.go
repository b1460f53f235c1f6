// Package postgres provides a PostgreSQL store implementation using pgx,
// intended for production deployments.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	ledgerstore "github.com/mz0in/polar/store"
	"github.com/mz0in/polar/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("polar/postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing connection pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Migrations() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("polar/postgres: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, processor, status, country, currency,
			processor_fees_applicable, free_payout, processor_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, string(a.Processor), string(a.Status), a.Country, a.Currency,
		a.ProcessorFeesApplicable, a.FreePayout, a.ProcessorID,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("polar/postgres: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, processor, status, country, currency,
		       processor_fees_applicable, free_payout, processor_id,
		       created_at, updated_at
		FROM accounts WHERE id = $1`, accountID)

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
		args = append(args, string(opts.Processor))
		where = append(where, fmt.Sprintf("processor = $%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("polar/postgres: list accounts: %w", err)
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
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET
			processor = $1, status = $2, country = $3, currency = $4,
			processor_fees_applicable = $5, free_payout = $6, processor_id = $7,
			updated_at = $8
		WHERE id = $9`,
		string(a.Processor), string(a.Status), a.Country, a.Currency,
		a.ProcessorFeesApplicable, a.FreePayout, a.ProcessorID,
		a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("polar/postgres: update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
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

const insertTransactionSQL = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

func transactionArgs(t *transaction.Transaction) []any {
	return []any{
		t.ID, string(t.Type), string(t.Processor),
		t.Amount.Amount, t.Amount.Currency,
		t.AccountAmount.Amount, t.AccountAmount.Currency,
		t.TaxAmount.Amount, t.TaxAmount.Currency,
		string(t.Origin.Kind), t.Origin.ID, t.AccountID,
		t.IncurredByID, t.PaymentID, t.CorrelationKey, string(t.FeeType),
		t.CreatedAt, t.UpdatedAt,
	}
}

func (s *Store) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	if _, err := s.pool.Exec(ctx, insertTransactionSQL, transactionArgs(t)...); err != nil {
		return fmt.Errorf("polar/postgres: create transaction: %w", err)
	}
	return nil
}

func (s *Store) CreateTransactionPairs(ctx context.Context, pairs []transaction.Pair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("polar/postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, p := range pairs {
		for _, t := range p.Transactions() {
			if _, err := tx.Exec(ctx, insertTransactionSQL, transactionArgs(t)...); err != nil {
				return fmt.Errorf("polar/postgres: create transaction: %w", err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txID)

	return scanTransaction(row)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	where, args := []string{}, []any{}
	if !opts.AccountID.IsNil() {
		args = append(args, opts.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if opts.Type != "" {
		args = append(args, string(opts.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if opts.FeeType != "" {
		args = append(args, string(opts.FeeType))
		where = append(where, fmt.Sprintf("fee_type = $%d", len(args)))
	}
	if !opts.CorrelationKey.IsNil() {
		args = append(args, opts.CorrelationKey)
		where = append(where, fmt.Sprintf("correlation_key = $%d", len(args)))
	}
	if !opts.PaymentID.IsNil() {
		args = append(args, opts.PaymentID)
		where = append(where, fmt.Sprintf("payment_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("polar/postgres: list transactions: %w", err)
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
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE incurred_by_id = $1 AND type = $2
		ORDER BY created_at LIMIT 1`, txID, string(typ))

	return scanTransaction(row)
}

func (s *Store) LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = $1 AND account_id = $2
		ORDER BY created_at DESC LIMIT 1`,
		string(transaction.TypePayout), accountID)

	return scanTransaction(row)
}

func (s *Store) AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	var sum int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(account_amount), 0)
		FROM transactions WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("polar/postgres: account balance: %w", err)
	}
	return sum, nil
}

// ==================== Row scanning ====================

func scanAccount(row pgx.Row) (*account.Account, error) {
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("polar/postgres: scan account: %w", err)
	}
	a.Processor = account.Processor(processor)
	a.Status = account.Status(status)
	return &a, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("polar/postgres: scan transaction: %w", err)
	}
	t.Type = transaction.Type(typ)
	t.Processor = transaction.Processor(processor)
	t.Origin.Kind = transaction.OriginKind(originKind)
	t.FeeType = transaction.PlatformFeeType(feeType)
	return &t, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if offset > 0 {
			args = append(args, offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}
	return query, args
}
