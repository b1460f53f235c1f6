package mongo

import (
	"fmt"
	"time"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/transaction"
	"github.com/mz0in/polar/types"
)

// ==================== Account models ====================

type accountModel struct {
	ID                      string    `bson:"_id"`
	Processor               string    `bson:"processor"`
	Status                  string    `bson:"status"`
	Country                 string    `bson:"country"`
	Currency                string    `bson:"currency"`
	ProcessorFeesApplicable bool      `bson:"processor_fees_applicable"`
	FreePayout              bool      `bson:"free_payout"`
	ProcessorID             string    `bson:"processor_id"`
	CreatedAt               time.Time `bson:"created_at"`
	UpdatedAt               time.Time `bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:                      a.ID.String(),
		Processor:               string(a.Processor),
		Status:                  string(a.Status),
		Country:                 a.Country,
		Currency:                a.Currency,
		ProcessorFeesApplicable: a.ProcessorFeesApplicable,
		FreePayout:              a.FreePayout,
		ProcessorID:             a.ProcessorID,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("polar/mongo: parse account id: %w", err)
	}
	return &account.Account{
		Entity:                  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                      accountID,
		Processor:               account.Processor(m.Processor),
		Status:                  account.Status(m.Status),
		Country:                 m.Country,
		Currency:                m.Currency,
		ProcessorFeesApplicable: m.ProcessorFeesApplicable,
		FreePayout:              m.FreePayout,
		ProcessorID:             m.ProcessorID,
	}, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	ID              string    `bson:"_id"`
	Type            string    `bson:"type"`
	Processor       string    `bson:"processor,omitempty"`
	Amount          int64     `bson:"amount"`
	Currency        string    `bson:"currency"`
	AccountAmount   int64     `bson:"account_amount"`
	AccountCurrency string    `bson:"account_currency"`
	TaxAmount       int64     `bson:"tax_amount"`
	TaxCurrency     string    `bson:"tax_currency,omitempty"`
	OriginKind      string    `bson:"origin_kind,omitempty"`
	OriginID        string    `bson:"origin_id,omitempty"`
	AccountID       string    `bson:"account_id,omitempty"`
	IncurredByID    string    `bson:"incurred_by_id,omitempty"`
	PaymentID       string    `bson:"payment_id,omitempty"`
	CorrelationKey  string    `bson:"correlation_key,omitempty"`
	FeeType         string    `bson:"fee_type,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toTransactionModel(t *transaction.Transaction) *transactionModel {
	return &transactionModel{
		ID:              t.ID.String(),
		Type:            string(t.Type),
		Processor:       string(t.Processor),
		Amount:          t.Amount.Amount,
		Currency:        t.Amount.Currency,
		AccountAmount:   t.AccountAmount.Amount,
		AccountCurrency: t.AccountAmount.Currency,
		TaxAmount:       t.TaxAmount.Amount,
		TaxCurrency:     t.TaxAmount.Currency,
		OriginKind:      string(t.Origin.Kind),
		OriginID:        idString(t.Origin.ID),
		AccountID:       idString(t.AccountID),
		IncurredByID:    idString(t.IncurredByID),
		PaymentID:       idString(t.PaymentID),
		CorrelationKey:  idString(t.CorrelationKey),
		FeeType:         string(t.FeeType),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("polar/mongo: parse transaction id: %w", err)
	}

	t := &transaction.Transaction{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            txID,
		Type:          transaction.Type(m.Type),
		Processor:     transaction.Processor(m.Processor),
		Amount:        types.New(m.Amount, m.Currency),
		AccountAmount: types.New(m.AccountAmount, m.AccountCurrency),
		TaxAmount:     types.New(m.TaxAmount, m.TaxCurrency),
		Origin:        transaction.Origin{Kind: transaction.OriginKind(m.OriginKind)},
		FeeType:       transaction.PlatformFeeType(m.FeeType),
	}

	if err := parseInto(&t.Origin.ID, m.OriginID); err != nil {
		return nil, err
	}
	if err := parseInto(&t.AccountID, m.AccountID); err != nil {
		return nil, err
	}
	if err := parseInto(&t.IncurredByID, m.IncurredByID); err != nil {
		return nil, err
	}
	if err := parseInto(&t.PaymentID, m.PaymentID); err != nil {
		return nil, err
	}
	if err := parseInto(&t.CorrelationKey, m.CorrelationKey); err != nil {
		return nil, err
	}
	return t, nil
}

func idString(i id.ID) string {
	if i.IsNil() {
		return ""
	}
	return i.String()
}

func parseInto(dst *id.ID, s string) error {
	if s == "" {
		*dst = id.Nil
		return nil
	}
	parsed, err := id.Parse(s)
	if err != nil {
		return fmt.Errorf("polar/mongo: parse id %q: %w", s, err)
	}
	*dst = parsed
	return nil
}
