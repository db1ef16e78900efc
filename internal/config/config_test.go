package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_LEARNER_SECRET", "learner-secret")
	t.Setenv("AUTH_ADMIN_SECRET", "admin-secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Payment.Currency != "usd" {
		t.Errorf("Currency = %q, want usd", cfg.Payment.Currency)
	}
	if cfg.Payment.MinorUnitMultiplier != 100 {
		t.Errorf("MinorUnitMultiplier = %d, want 100", cfg.Payment.MinorUnitMultiplier)
	}
	if !cfg.Payment.VerifyWithProcessor {
		t.Error("VerifyWithProcessor should default to true")
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.HTTP.Port)
	}
}

func TestLoadNormalizesCurrency(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_CURRENCY", "USD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Payment.Currency != "usd" {
		t.Errorf("Currency = %q, want usd", cfg.Payment.Currency)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing learner secret",
			mutate:  func(c *Config) { c.Auth.LearnerSecret = "" },
			wantErr: "required",
		},
		{
			name:    "shared secret",
			mutate:  func(c *Config) { c.Auth.AdminSecret = c.Auth.LearnerSecret },
			wantErr: "must differ",
		},
		{
			name:    "zero multiplier",
			mutate:  func(c *Config) { c.Payment.MinorUnitMultiplier = 0 },
			wantErr: "MINOR_UNIT_MULTIPLIER",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Payment.Provider = "adyen" },
			wantErr: "unknown PAYMENT_PROVIDER",
		},
		{
			name: "braintree without credentials",
			mutate: func(c *Config) {
				c.Payment.Provider = ProviderBraintree
			},
			wantErr: "BRAINTREE_MERCHANT_ID",
		},
		{
			name:    "paypal without credentials",
			mutate:  func(c *Config) { c.Payment.Provider = ProviderPaypal },
			wantErr: "PAYPAL_CLIENT_ID",
		},
		{
			name: "paypal",
			mutate: func(c *Config) {
				c.Payment.Provider = ProviderPaypal
				c.Paypal = Paypal{ClientID: "id", ClientSecret: "secret"}
			},
		},
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Auth:    Auth{LearnerSecret: "a", AdminSecret: "b"},
				Payment: Payment{Provider: ProviderStripe, Currency: "usd", MinorUnitMultiplier: 100},
				Stripe:  Stripe{SecretKey: "sk_test"},
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
