// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port      string `env:"PORT,default=8080"`
	GRPCPort  string `env:"GRPC_PORT,default=50051"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=console"` // "console" | "json"

	RepoType       string        `env:"REPO_TYPE,default=memory"` // "memory" | "sqlite"
	DBPath         string        `env:"DB_PATH,default=./orders.db"`
	OrderRetention time.Duration `env:"ORDER_RETENTION,default=2160h"`
	PruneInterval  time.Duration `env:"PRUNE_INTERVAL,default=1h"`

	LLMProvider   string        `env:"LLM_PROVIDER,default=mock"` // "openai" | "gemini" | "mock"
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	OpenAIModel   string        `env:"OPENAI_MODEL,default=gpt-4o-mini"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT,default=2m"`

	PaymentProvider    string `env:"PAYMENT_PROVIDER,default=mock"` // "paypal" | "mock"
	PayPalClientID     string `env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
	PayPalMode         string `env:"PAYPAL_MODE,default=sandbox"` // "sandbox" | "live"
	ProductPrice       string `env:"PRODUCT_PRICE,default=9.99"`
	ProductCurrency    string `env:"PRODUCT_CURRENCY,default=USD"`
	ProductName        string `env:"PRODUCT_NAME,default=Four Pillars Destiny Reading"`

	AppleMerchantID     string `env:"APPLE_MERCHANT_ID"`
	AppleMerchantDomain string `env:"APPLE_MERCHANT_DOMAIN"`
	AppleMerchantName   string `env:"APPLE_MERCHANT_NAME"`
	AppleMerchantCert   string `env:"APPLE_MERCHANT_CERT"` // path to the merchant identity certificate
	AppleMerchantKey    string `env:"APPLE_MERCHANT_KEY"`

	MailProvider string `env:"MAIL_PROVIDER,default=mock"` // "resend" | "mock"
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM,default=readings@example.com"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=0.2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=5"`
	// Comma-separated proxy addresses or CIDRs allowed to set X-Forwarded-For.
	// Empty means the connection's remote address is the client.
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	PDFFont string `env:"PDF_FONT"` // TrueType font for scripts the embedded one lacks

	TLSCert string `env:"TLS_CERT"` // path to this service's certificate
	TLSKey  string `env:"TLS_KEY"`  // path to this service's private key
	TLSCA   string `env:"TLS_CA"`   // path to the CA certificate
}

// Load reads envFile (if it exists) into the environment and decodes the
// configuration. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks provider selections and the credentials they need
func (c *Config) Validate() error {
	var errs []error

	c.RepoType = strings.ToLower(c.RepoType)
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	c.PaymentProvider = strings.ToLower(c.PaymentProvider)
	c.MailProvider = strings.ToLower(c.MailProvider)

	switch c.RepoType {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("REPO_TYPE must be memory or sqlite, got %q", c.RepoType))
	}

	switch c.LLMProvider {
	case "mock":
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be openai, gemini or mock, got %q", c.LLMProvider))
	}

	switch c.PaymentProvider {
	case "mock":
	case "paypal":
		if c.PayPalClientID == "" || c.PayPalClientSecret == "" {
			errs = append(errs, errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required when PAYMENT_PROVIDER=paypal"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER must be paypal or mock, got %q", c.PaymentProvider))
	}

	switch c.MailProvider {
	case "mock":
	case "resend":
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required when MAIL_PROVIDER=resend"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_PROVIDER must be resend or mock, got %q", c.MailProvider))
	}

	if price, err := decimal.NewFromString(c.ProductPrice); err != nil || !price.IsPositive() {
		errs = append(errs, fmt.Errorf("PRODUCT_PRICE must be a positive amount, got %q", c.ProductPrice))
	}
	if len(c.ProductCurrency) != 3 {
		errs = append(errs, fmt.Errorf("PRODUCT_CURRENCY must be a 3-letter code, got %q", c.ProductCurrency))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.PruneInterval <= 0 {
		errs = append(errs, errors.New("PRUNE_INTERVAL must be positive"))
	}
	if _, err := parsePrefixes(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}

// Price returns the product price. Validate has already checked it parses.
func (c *Config) Price() decimal.Decimal {
	return decimal.RequireFromString(c.ProductPrice)
}

// ApplePayEnabled reports whether a merchant identity is configured
func (c *Config) ApplePayEnabled() bool {
	return c.AppleMerchantID != "" && c.AppleMerchantCert != "" && c.AppleMerchantKey != ""
}

// TLSEnabled reports whether the gRPC server should use mTLS
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != ""
}

// Proxies returns the trusted proxy ranges. Validate has already checked
// they parse.
func (c *Config) Proxies() []netip.Prefix {
	prefixes, _ := parsePrefixes(c.TrustedProxies)
	return prefixes
}

// parsePrefixes accepts single addresses as well as CIDR ranges
func parsePrefixes(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
