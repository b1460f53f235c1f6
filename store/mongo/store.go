// Package mongo provides a MongoDB store implementation on the official
// driver. Pair writes use a client session, so the server must run as a
// replica set for multi-document transactions.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	ledgerstore "github.com/mz0in/polar/store"
	"github.com/mz0in/polar/transaction"
)

// Collection name constants.
const (
	colAccounts     = "polar_accounts"
	colTransactions = "polar_transactions"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB at uri and uses the named database.
func New(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("polar/mongo: connect: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Database returns the underlying database handle for direct access.
func (s *Store) Database() *mongo.Database { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "processor", Value: 1}, {Key: "status", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}}},
			{Keys: bson.D{{Key: "incurred_by_id", Value: 1}, {Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "correlation_key", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("polar/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the server.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	_, err := s.db.Collection(colAccounts).InsertOne(ctx, toAccountModel(a))
	if err != nil {
		return fmt.Errorf("polar/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).
		FindOne(ctx, bson.M{"_id": accountID.String()}).
		Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("polar/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	filter := bson.M{}
	if opts.Processor != "" {
		filter["processor"] = string(opts.Processor)
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colAccounts).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("polar/mongo: list accounts: %w", err)
	}
	defer cur.Close(ctx) //nolint:errcheck // read-only cursor

	result := make([]*account.Account, 0)
	for cur.Next(ctx) {
		var m accountModel
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("polar/mongo: decode account: %w", err)
		}
		a, err := fromAccountModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, cur.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	res, err := s.db.Collection(colAccounts).
		ReplaceOne(ctx, bson.M{"_id": a.ID.String()}, toAccountModel(a))
	if err != nil {
		return fmt.Errorf("polar/mongo: update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	_, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(t))
	if err != nil {
		return fmt.Errorf("polar/mongo: create transaction: %w", err)
	}
	return nil
}

func (s *Store) CreateTransactionPairs(ctx context.Context, pairs []transaction.Pair) error {
	docs := make([]any, 0, len(pairs)*2)
	for _, p := range pairs {
		for _, t := range p.Transactions() {
			docs = append(docs, toTransactionModel(t))
		}
	}
	if len(docs) == 0 {
		return nil
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("polar/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return s.db.Collection(colTransactions).InsertMany(ctx, docs)
	})
	if err != nil {
		return fmt.Errorf("polar/mongo: create transaction pairs: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).
		FindOne(ctx, bson.M{"_id": txID.String()}).
		Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("polar/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	filter := bson.M{}
	if !opts.AccountID.IsNil() {
		filter["account_id"] = opts.AccountID.String()
	}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}
	if opts.FeeType != "" {
		filter["fee_type"] = string(opts.FeeType)
	}
	if !opts.CorrelationKey.IsNil() {
		filter["correlation_key"] = opts.CorrelationKey.String()
	}
	if !opts.PaymentID.IsNil() {
		filter["payment_id"] = opts.PaymentID.String()
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit)).SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colTransactions).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("polar/mongo: list transactions: %w", err)
	}
	defer cur.Close(ctx) //nolint:errcheck // read-only cursor

	result := make([]*transaction.Transaction, 0)
	for cur.Next(ctx) {
		var m transactionModel
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("polar/mongo: decode transaction: %w", err)
		}
		t, err := fromTransactionModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, cur.Err()
}

func (s *Store) GetTransactionByIncurredBy(ctx context.Context, txID id.TransactionID, typ transaction.Type) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).
		FindOne(ctx, bson.M{"incurred_by_id": txID.String(), "type": string(typ)}).
		Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("polar/mongo: get transaction by incurred by: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) LatestPayout(ctx context.Context, accountID id.AccountID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).
		FindOne(ctx,
			bson.M{"type": string(transaction.TypePayout), "account_id": accountID.String()},
			options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
		).
		Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("polar/mongo: latest payout: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) AccountBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"account_id": accountID.String()}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$account_amount"},
		}}},
	}

	cur, err := s.db.Collection(colTransactions).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("polar/mongo: account balance: %w", err)
	}
	defer cur.Close(ctx) //nolint:errcheck // read-only cursor

	var out struct {
		Total int64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return 0, fmt.Errorf("polar/mongo: decode balance: %w", err)
		}
	}
	return out.Total, cur.Err()
}
