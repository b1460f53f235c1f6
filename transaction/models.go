// Package transaction defines the append-only ledger rows of the Polar
// platform and the pair structure grouping the two legs of a transfer.
//
// Transactions are immutable once created. Corrections never edit history;
// they are expressed as new reversal pairs.
package transaction

import (
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/types"
)

// Type classifies a ledger row.
type Type string

const (
	TypePayment      Type = "payment"       // Inbound payment from a payer
	TypeProcessorFee Type = "processor_fee" // Fee charged by the payment processor
	TypeRefund       Type = "refund"
	TypeDispute      Type = "dispute"
	TypeBalance      Type = "balance" // One leg of a platform <-> account transfer
	TypePayout       Type = "payout"  // Withdrawal to the account's bank
)

// Processor identifies the external payment processor a row settled
// through. Empty for internal transfers (balances, fee reversals).
type Processor string

const (
	ProcessorStripe         Processor = "stripe"
	ProcessorOpenCollective Processor = "open_collective"
)

// PlatformFeeType is the closed set of fee categories a fee row can
// represent. Empty for non-fee rows.
type PlatformFeeType string

const (
	FeePlatform            PlatformFeeType = "platform"
	FeePayment             PlatformFeeType = "payment" // Processor fee passthrough
	FeeInvoice             PlatformFeeType = "invoice"
	FeeSubscription        PlatformFeeType = "subscription"
	FeeAccount             PlatformFeeType = "account"
	FeePayout              PlatformFeeType = "payout"
	FeeCrossBorderTransfer PlatformFeeType = "cross_border_transfer"
)

// OriginKind discriminates where the money a transaction moves came from.
type OriginKind string

const (
	OriginPledge       OriginKind = "pledge"
	OriginIssueReward  OriginKind = "issue_reward"
	OriginSubscription OriginKind = "subscription"
)

// Origin is a tagged reference to the domain object a transaction's funds
// originate from. The zero value means "no origin"; the single Kind+ID
// shape keeps more than one origin from ever being set.
type Origin struct {
	Kind OriginKind `json:"kind,omitempty"`
	ID   id.ID      `json:"id,omitempty"`
}

// PledgeOrigin returns an Origin pointing at a pledge.
func PledgeOrigin(pledgeID id.PledgeID) Origin {
	return Origin{Kind: OriginPledge, ID: pledgeID}
}

// IssueRewardOrigin returns an Origin pointing at an issue reward.
func IssueRewardOrigin(rewardID id.IssueRewardID) Origin {
	return Origin{Kind: OriginIssueReward, ID: rewardID}
}

// SubscriptionOrigin returns an Origin pointing at a subscription.
func SubscriptionOrigin(subID id.SubscriptionID) Origin {
	return Origin{Kind: OriginSubscription, ID: subID}
}

// IsZero reports whether no origin is set.
func (o Origin) IsZero() bool { return o.Kind == "" }

// Transaction is one row of the ledger.
//
// Back-references (IncurredByID, PaymentID) are non-owning lookups resolved
// through a Store, never embedded object graphs. AccountID is the connected
// payout account a row is booked against; Nil means platform-held.
type Transaction struct {
	types.Entity
	ID             id.TransactionID `json:"id"`
	Type           Type             `json:"type"`
	Processor      Processor        `json:"processor,omitempty"`
	Amount         types.Money      `json:"amount"`
	AccountAmount  types.Money      `json:"account_amount"`
	TaxAmount      types.Money      `json:"tax_amount"`
	Origin         Origin           `json:"origin,omitempty"`
	AccountID      id.AccountID     `json:"account_id,omitempty"`
	IncurredByID   id.TransactionID `json:"incurred_by_transaction_id,omitempty"`
	PaymentID      id.TransactionID `json:"payment_transaction_id,omitempty"`
	CorrelationKey id.BalanceID     `json:"balance_correlation_key,omitempty"`
	FeeType        PlatformFeeType  `json:"platform_fee_type,omitempty"`
}

// IsFee reports whether the row represents a platform fee.
func (t *Transaction) IsFee() bool { return t.FeeType != "" }

// Pair groups the outgoing and incoming legs of one logical transfer
// between the platform and a payee account.
type Pair struct {
	Outgoing *Transaction `json:"outgoing"`
	Incoming *Transaction `json:"incoming"`
}

// Sum returns the total of both legs. A well-formed pair sums to zero.
func (p Pair) Sum() types.Money {
	return p.Outgoing.Amount.Add(p.Incoming.Amount)
}

// Transactions returns both legs, outgoing first, for persistence.
func (p Pair) Transactions() []*Transaction {
	return []*Transaction{p.Outgoing, p.Incoming}
}

// NewBalancePair builds the outgoing/incoming legs that redistribute a
// payment to a payee account. Both legs share a fresh correlation key and
// reference the originating payment; only the incoming leg is booked.
func NewBalancePair(payment *Transaction, accountID id.AccountID, amount types.Money) Pair {
	key := id.NewBalanceID()

	outgoing := &Transaction{
		Entity:         types.NewEntity(),
		ID:             id.NewTransactionID(),
		Type:           TypeBalance,
		Amount:         amount.Negate(),
		AccountAmount:  amount.Negate(),
		TaxAmount:      types.Zero(amount.Currency),
		Origin:         payment.Origin,
		PaymentID:      payment.ID,
		CorrelationKey: key,
	}
	incoming := &Transaction{
		Entity:         types.NewEntity(),
		ID:             id.NewTransactionID(),
		Type:           TypeBalance,
		Amount:         amount,
		AccountAmount:  amount,
		TaxAmount:      types.Zero(amount.Currency),
		Origin:         payment.Origin,
		AccountID:      accountID,
		PaymentID:      payment.ID,
		CorrelationKey: key,
	}

	return Pair{Outgoing: outgoing, Incoming: incoming}
}

// NewFeePair builds the reversal pair for one platform fee of magnitude
// fee (positive). The outgoing leg is booked to the payee account with a
// negative amount; the incoming leg is unbooked and positive, mirroring
// the cost returning to the platform. The legs share a fresh correlation
// key and record what incurred them through IncurredByID; passing Nil for
// both makes the legs cross-link each other (payout-time fees, which no
// prior transaction incurred).
func NewFeePair(fee types.Money, feeType PlatformFeeType, accountID id.AccountID, incurredOutgoing, incurredIncoming id.TransactionID) Pair {
	fee = fee.Abs()
	key := id.NewBalanceID()

	outgoing := &Transaction{
		Entity:         types.NewEntity(),
		ID:             id.NewTransactionID(),
		Type:           TypeBalance,
		Amount:         fee.Negate(),
		AccountAmount:  fee.Negate(),
		TaxAmount:      types.Zero(fee.Currency),
		AccountID:      accountID,
		IncurredByID:   incurredOutgoing,
		CorrelationKey: key,
		FeeType:        feeType,
	}
	incoming := &Transaction{
		Entity:         types.NewEntity(),
		ID:             id.NewTransactionID(),
		Type:           TypeBalance,
		Amount:         fee,
		AccountAmount:  fee,
		TaxAmount:      types.Zero(fee.Currency),
		IncurredByID:   incurredIncoming,
		CorrelationKey: key,
		FeeType:        feeType,
	}

	if incurredOutgoing.IsNil() && incurredIncoming.IsNil() {
		outgoing.IncurredByID = incoming.ID
		incoming.IncurredByID = outgoing.ID
	}

	return Pair{Outgoing: outgoing, Incoming: incoming}
}
