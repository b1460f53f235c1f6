// Package account defines connected payout accounts. Accounts are created
// by the onboarding flow and are read-only to the fee engine.
package account

import (
	"github.com/mz0in/polar/id"
	"github.com/mz0in/polar/types"
)

// Processor identifies the kind of payout destination.
type Processor string

const (
	ProcessorStripe         Processor = "stripe"
	ProcessorOpenCollective Processor = "open_collective"
)

type Status string

const (
	StatusCreated           Status = "created"
	StatusOnboardingStarted Status = "onboarding_started"
	StatusUnderReview       Status = "under_review"
	StatusActive            Status = "active"
)

// Account is a connected payout destination for a user or organization.
type Account struct {
	types.Entity
	ID        id.AccountID `json:"id"`
	Processor Processor    `json:"processor"`
	Status    Status       `json:"status"`

	// Country and Currency are the account's settlement jurisdiction.
	Country  string `json:"country"`
	Currency string `json:"currency"`

	// ProcessorFeesApplicable gates the whole payout fee gauntlet.
	ProcessorFeesApplicable bool `json:"processor_fees_applicable"`

	// FreePayout marks accounts grandfathered into the free payout
	// window: the fixed account fee is waived for them.
	FreePayout bool `json:"free_payout"`

	// ProcessorID is the identifier on the external processor side
	// (e.g. the Stripe Connect account id).
	ProcessorID string `json:"processor_id,omitempty"`
}

// IsActive reports whether the account finished onboarding.
func (a *Account) IsActive() bool { return a.Status == StatusActive }
