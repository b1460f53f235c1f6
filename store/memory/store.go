// Package memory provides an in-memory store implementation, suitable for
// tests and prototyping. Data does not survive process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/mz0in/polar"
	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/transaction"
)

type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[string]*account.Account

	// Transaction storage, in insertion order. Rows are append-only.
	transactions []*transaction.Transaction
	byID         map[string]*transaction.Transaction
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]*account.Account),
		transactions: make([]*transaction.Transaction, 0),
		byID:         make(map[string]*transaction.Transaction),
	}
}

// Account Store implementation

func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; exists {
		return polar.ErrAlreadyExists
	}
	s.accounts[a.ID.String()] = a
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID.String()]; ok {
		return cloneAccount(a), nil
	}
	return nil, account.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0)
	for _, a := range s.accounts {
		if opts.Processor != "" && a.Processor != opts.Processor {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		result = append(result, cloneAccount(a))
	}

	return window(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; !exists {
		return account.ErrNotFound
	}
	s.accounts[a.ID.String()] = a
	return nil
}

// Transaction Store implementation

func (s *Store) CreateTransaction(_ context.Context, t *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(t)
}

func (s *Store) CreateTransactionPairs(_ context.Context, pairs []transaction.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every leg before inserting any, so a duplicate leaves the
	// store untouched.
	for _, p := range pairs {
		for _, t := range p.Transactions() {
			if _, exists := s.byID[t.ID.String()]; exists {
				return polar.ErrAlreadyExists
			}
		}
	}
	for _, p := range pairs {
		for _, t := range p.Transactions() {
			if err := s.insert(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) insert(t *transaction.Transaction) error {
	if _, exists := s.byID[t.ID.String()]; exists {
		return polar.ErrAlreadyExists
	}
	s.byID[t.ID.String()] = t
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.byID[txID.String()]; ok {
		return cloneTransaction(t), nil
	}
	return nil, transaction.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*transaction.Transaction, 0)
	for _, t := range s.transactions {
		if !opts.AccountID.IsNil() && t.AccountID != opts.AccountID {
			continue
		}
		if opts.Type != "" && t.Type != opts.Type {
			continue
		}
		if opts.FeeType != "" && t.FeeType != opts.FeeType {
			continue
		}
		if !opts.CorrelationKey.IsNil() && t.CorrelationKey != opts.CorrelationKey {
			continue
		}
		if !opts.PaymentID.IsNil() && t.PaymentID != opts.PaymentID {
			continue
		}
		result = append(result, cloneTransaction(t))
	}

	return window(result, opts.Offset, opts.Limit), nil
}

func (s *Store) GetTransactionByIncurredBy(_ context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions {
		if t.Type == typ && t.IncurredByID == txID {
			return cloneTransaction(t), nil
		}
	}
	return nil, transaction.ErrNotFound
}

func (s *Store) LatestPayout(_ context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *transaction.Transaction
	for _, t := range s.transactions {
		if t.Type != transaction.TypePayout || t.AccountID != accountID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, transaction.ErrNotFound
	}
	return cloneTransaction(latest), nil
}

func (s *Store) AccountBalance(_ context.Context, accountID id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			sum += t.AccountAmount.Amount
		}
	}
	return sum, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migrations needed for in-memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Reads hand out copies so callers cannot edit rows in place, matching
// the row-per-read behavior of the SQL backends.

func cloneAccount(a *account.Account) *account.Account {
	cp := *a
	return &cp
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	cp := *t
	return &cp
}

func window[T any](rows []T, offset, limit int) []T {
	start := offset
	if start > len(rows) {
		start = len(rows)
	}
	end := start + limit
	if limit == 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
