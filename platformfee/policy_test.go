package platformfee

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if err := p.Validate(); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
	if p.PlatformFeeBasisPoints != 500 {
		t.Errorf("PlatformFeeBasisPoints = %d, want 500", p.PlatformFeeBasisPoints)
	}
	if p.AccountFee != 200 {
		t.Errorf("AccountFee = %d, want 200", p.AccountFee)
	}
	if p.PayoutWindow() != 30*24*time.Hour {
		t.Errorf("PayoutWindow = %v, want 720h", p.PayoutWindow())
	}
}

func TestLoadPolicyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.toml")
	content := `
platform_fee_basis_points = 400
account_fee = 300
platform_country = "SE"
platform_currency = "sek"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}

	if p.PlatformFeeBasisPoints != 400 {
		t.Errorf("PlatformFeeBasisPoints = %d, want 400", p.PlatformFeeBasisPoints)
	}
	if p.AccountFee != 300 {
		t.Errorf("AccountFee = %d, want 300", p.AccountFee)
	}
	if p.PlatformCountry != "SE" || p.PlatformCurrency != "sek" {
		t.Errorf("jurisdiction = (%s, %s), want (SE, sek)", p.PlatformCountry, p.PlatformCurrency)
	}
	// Untouched knobs keep their defaults.
	if p.PayoutFeeBasisPoints != 25 {
		t.Errorf("PayoutFeeBasisPoints = %d, want default 25", p.PayoutFeeBasisPoints)
	}
}

func TestLoadPolicyRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.toml")
	if err := os.WriteFile(path, []byte("platform_fee_basis_points = 20000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPolicy(path); err == nil {
		t.Fatal("expected validation error for out-of-range basis points")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"defaults", func(*Policy) {}, false},
		{"negative bps", func(p *Policy) { p.PayoutFeeBasisPoints = -1 }, true},
		{"negative flat fee", func(p *Policy) { p.AccountFee = -200 }, true},
		{"zero window", func(p *Policy) { p.PayoutWindowDays = 0 }, true},
		{"missing currency", func(p *Policy) { p.PlatformCurrency = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
