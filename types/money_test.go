package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(10000), 10000, "usd", "$100.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"GBP", GBP(9900), 9900, "gbp", "£99.00"},
		{"New upper-cases currency", New(2500, "SEK"), 2500, "sek", "kr 25.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD(100).Add(USD(200)) }, USD(300)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Negate", func() Money { return USD(100).Negate() }, USD(-100)},
		{"Abs positive", func() Money { return USD(100).Abs() }, USD(100)},
		{"Abs negative", func() Money { return USD(-100).Abs() }, USD(100)},
		{"BasisPoints 5%", func() Money { return USD(10000).BasisPoints(500) }, USD(500)},
		{"BasisPoints 0.5%", func() Money { return USD(10000).BasisPoints(50) }, USD(50)},
		{"BasisPoints rounds toward zero", func() Money { return USD(9800).BasisPoints(25) }, USD(24)},
		{"AtLeast below floor", func() Money { return USD(24).AtLeast(USD(25)) }, USD(25)},
		{"AtLeast above floor", func() Money { return USD(98).AtLeast(USD(25)) }, USD(98)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op()
			if !got.Equal(tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	USD(100).Add(EUR(100))
}

func TestMoneyComparisons(t *testing.T) {
	if !USD(0).IsZero() {
		t.Error("USD(0) should be zero")
	}
	if !USD(1).IsPositive() {
		t.Error("USD(1) should be positive")
	}
	if !USD(-1).IsNegative() {
		t.Error("USD(-1) should be negative")
	}
	if !USD(100).LessThan(USD(200)) {
		t.Error("100 should be less than 200")
	}
	if USD(100).Equal(EUR(100)) {
		t.Error("same amount in different currencies should not be equal")
	}
}

func TestMoneySum(t *testing.T) {
	got := Sum(USD(-10000), USD(10000), USD(-500), USD(500))
	if !got.IsZero() {
		t.Errorf("sum = %v, want zero", got)
	}
}

func TestMoneyFormatNegative(t *testing.T) {
	if got := USD(-50).String(); got != "$-0.50" {
		t.Errorf("String() = %q, want %q", got, "$-0.50")
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(USD(10000))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"display":"$100.00"`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}
