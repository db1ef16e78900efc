package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database

	Auth      Auth      `envPrefix:"AUTH_"`
	Payment   Payment   `envPrefix:"PAYMENT_"`
	Stripe    Stripe    `envPrefix:"STRIPE_"`
	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Storage   Storage   `envPrefix:"UPLOAD_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type Database struct {
	URL             string        `env:"DATABASE_URL" envDefault:"marketplace.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Auth struct {
	LearnerSecret string        `env:"LEARNER_SECRET"`
	AdminSecret   string        `env:"ADMIN_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	LoginLimit    int64         `env:"LOGIN_LIMIT" envDefault:"5"`
	LoginWindow   time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
}

type Payment struct {
	Provider            string        `env:"PROVIDER" envDefault:"stripe"`
	Currency            string        `env:"CURRENCY" envDefault:"usd"`
	MinorUnitMultiplier int64         `env:"MINOR_UNIT_MULTIPLIER" envDefault:"100"`
	VerifyWithProcessor bool          `env:"VERIFY_WITH_PROCESSOR" envDefault:"true"`
	RetryAttempts       uint          `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay          time.Duration `env:"RETRY_DELAY" envDefault:"200ms"`
	RetryMaxDelay       time.Duration `env:"RETRY_MAX_DELAY" envDefault:"2s"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
}

type Paypal struct {
	BaseApiURL   string        `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

// Redis is optional; an empty URL disables login rate limiting.
type Redis struct {
	URL string `env:"URL"`
}

type Storage struct {
	Dir     string `env:"DIR" envDefault:"uploads"`
	BaseURL string `env:"BASE_URL" envDefault:"/uploads"`
}

const (
	ProviderStripe    = "stripe"
	ProviderPaypal    = "paypal"
	ProviderBraintree = "braintree"
)

// Load parses the process environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.LearnerSecret == "" || c.Auth.AdminSecret == "" {
		return errors.New("AUTH_LEARNER_SECRET and AUTH_ADMIN_SECRET are required")
	}
	// a shared secret would let one principal kind's token verify as the other
	if c.Auth.LearnerSecret == c.Auth.AdminSecret {
		return errors.New("AUTH_LEARNER_SECRET and AUTH_ADMIN_SECRET must differ")
	}
	if c.Payment.MinorUnitMultiplier <= 0 {
		return errors.New("PAYMENT_MINOR_UNIT_MULTIPLIER must be positive")
	}
	c.Payment.Currency = strings.ToLower(c.Payment.Currency)

	switch c.Payment.Provider {
	case ProviderStripe:
		if c.Stripe.SecretKey == "" {
			return errors.New("STRIPE_SECRET_KEY is required for the stripe provider")
		}
	case ProviderPaypal:
		if c.Paypal.ClientID == "" || c.Paypal.ClientSecret == "" {
			return errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required for the paypal provider")
		}
	case ProviderBraintree:
		if c.BrainTree.MerchantID == "" || c.BrainTree.PublicKey == "" || c.BrainTree.PrivateKey == "" {
			return errors.New("BRAINTREE_MERCHANT_ID, BRAINTREE_PUBLIC_KEY and BRAINTREE_PRIVATE_KEY are required for the braintree provider")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Payment.Provider)
	}
	return nil
}
