package platformfee

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Policy holds every fee knob as injected configuration. Percentages are
// expressed in basis points (100 bps = 1%) so all arithmetic stays on
// integers; flat amounts are minor units of the platform currency.
//
// The numeric defaults mirror current product policy and are expected to
// change over time; load overrides from a TOML file in deployments.
type Policy struct {
	// Commission percentages reversed from a completed balance transfer.
	PlatformFeeBasisPoints     int64 `toml:"platform_fee_basis_points"`
	InvoiceFeeBasisPoints      int64 `toml:"invoice_fee_basis_points"`
	SubscriptionFeeBasisPoints int64 `toml:"subscription_fee_basis_points"`

	// Payout-time fees.
	AccountFee                int64 `toml:"account_fee"`
	CrossBorderFeeBasisPoints int64 `toml:"cross_border_fee_basis_points"`
	PayoutFeeBasisPoints      int64 `toml:"payout_fee_basis_points"`
	PayoutFeeMinimum          int64 `toml:"payout_fee_minimum"`

	// MinimumPayoutAmount is the smallest payable balance; anything below
	// fails with ErrPayoutAmountTooLow.
	MinimumPayoutAmount int64 `toml:"minimum_payout_amount"`

	// PayoutWindowDays is the trailing window within which a prior payout
	// makes the next one free of the payout fee.
	PayoutWindowDays int `toml:"payout_window_days"`

	// Platform base jurisdiction; accounts settling elsewhere pay the
	// cross-border transfer fee.
	PlatformCountry  string `toml:"platform_country"`
	PlatformCurrency string `toml:"platform_currency"`
}

// DefaultPolicy returns the current production fee policy.
func DefaultPolicy() Policy {
	return Policy{
		PlatformFeeBasisPoints:     500, // 5%
		InvoiceFeeBasisPoints:      50,  // 0.5%
		SubscriptionFeeBasisPoints: 50,  // 0.5%
		AccountFee:                 200, // $2.00 flat
		CrossBorderFeeBasisPoints:  100, // 1%
		PayoutFeeBasisPoints:       25,  // 0.25%
		PayoutFeeMinimum:           25,  // $0.25 floor
		MinimumPayoutAmount:        1000,
		PayoutWindowDays:           30,
		PlatformCountry:            "US",
		PlatformCurrency:           "usd",
	}
}

// LoadPolicy reads a TOML policy file over the defaults, so a file only
// needs to name the knobs it overrides.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Policy{}, fmt.Errorf("platformfee: load policy %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects policies that would produce nonsensical ledgers.
func (p Policy) Validate() error {
	bps := map[string]int64{
		"platform_fee_basis_points":     p.PlatformFeeBasisPoints,
		"invoice_fee_basis_points":      p.InvoiceFeeBasisPoints,
		"subscription_fee_basis_points": p.SubscriptionFeeBasisPoints,
		"cross_border_fee_basis_points": p.CrossBorderFeeBasisPoints,
		"payout_fee_basis_points":       p.PayoutFeeBasisPoints,
	}
	for name, v := range bps {
		if v < 0 || v > 10_000 {
			return fmt.Errorf("platformfee: %s out of range: %d", name, v)
		}
	}
	if p.AccountFee < 0 || p.PayoutFeeMinimum < 0 || p.MinimumPayoutAmount < 0 {
		return fmt.Errorf("platformfee: flat amounts must be non-negative")
	}
	if p.PayoutWindowDays <= 0 {
		return fmt.Errorf("platformfee: payout_window_days must be positive: %d", p.PayoutWindowDays)
	}
	if p.PlatformCountry == "" || p.PlatformCurrency == "" {
		return fmt.Errorf("platformfee: platform country and currency are required")
	}
	return nil
}

// PayoutWindow returns the trailing free-payout window as a duration.
func (p Policy) PayoutWindow() time.Duration {
	return time.Duration(p.PayoutWindowDays) * 24 * time.Hour
}
