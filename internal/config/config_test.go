package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the config reads so host settings do not leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GRPC_PORT", "LOG_LEVEL", "LOG_FORMAT", "REPO_TYPE", "DB_PATH",
		"ORDER_RETENTION", "PRUNE_INTERVAL", "LLM_PROVIDER", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "OPENAI_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"LLM_TIMEOUT", "PAYMENT_PROVIDER", "PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_SECRET",
		"PAYPAL_MODE", "PRODUCT_PRICE", "PRODUCT_CURRENCY", "PRODUCT_NAME",
		"APPLE_MERCHANT_ID", "APPLE_MERCHANT_DOMAIN", "APPLE_MERCHANT_NAME",
		"APPLE_MERCHANT_CERT", "APPLE_MERCHANT_KEY", "MAIL_PROVIDER", "RESEND_API_KEY",
		"MAIL_FROM", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TLS_CERT", "TLS_KEY", "TLS_CA",
		"TRUSTED_PROXIES", "PDF_FONT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "memory", cfg.RepoType)
	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, "mock", cfg.PaymentProvider)
	assert.Equal(t, "mock", cfg.MailProvider)
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout)
	assert.Equal(t, 90*24*time.Hour, cfg.OrderRetention)
	assert.Equal(t, "9.99", cfg.Price().StringFixed(2))
	assert.Equal(t, "Four Pillars Destiny Reading", cfg.ProductName)
	assert.InDelta(t, 0.2, cfg.RateLimitRPS, 1e-9)
	assert.False(t, cfg.ApplePayEnabled())
	assert.False(t, cfg.TLSEnabled())
	assert.Empty(t, cfg.Proxies())
}

func TestProxies(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7 ,::1")

	cfg, err := Load("")
	require.NoError(t, err)

	proxies := cfg.Proxies()
	require.Len(t, proxies, 3)
	assert.Equal(t, "10.0.0.0/8", proxies[0].String())
	assert.Equal(t, "192.168.1.7/32", proxies[1].String())
	assert.Equal(t, "::1/128", proxies[2].String())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("REPO_TYPE", "SQLite")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PRODUCT_PRICE", "14.50")
	t.Setenv("PRUNE_INTERVAL", "30m")
	t.Setenv("APPLE_MERCHANT_ID", "merchant.com.example")
	t.Setenv("APPLE_MERCHANT_CERT", "/certs/merchant.pem")
	t.Setenv("APPLE_MERCHANT_KEY", "/certs/merchant.key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.RepoType)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "14.50", cfg.Price().StringFixed(2))
	assert.Equal(t, 30*time.Minute, cfg.PruneInterval)
	assert.True(t, cfg.ApplePayEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are absent, so unset the two the file provides
	for _, key := range []string{"LLM_PROVIDER", "GEMINI_API_KEY"} {
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LLM_PROVIDER=gemini\nGEMINI_API_KEY=g-test\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "g-test", cfg.GeminiAPIKey)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "openai without key",
			env:     map[string]string{"LLM_PROVIDER": "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown llm provider",
			env:     map[string]string{"LLM_PROVIDER": "oracle"},
			wantErr: "LLM_PROVIDER",
		},
		{
			name:    "paypal without secret",
			env:     map[string]string{"PAYMENT_PROVIDER": "paypal", "PAYPAL_CLIENT_ID": "id"},
			wantErr: "PAYPAL_CLIENT_SECRET",
		},
		{
			name:    "resend without key",
			env:     map[string]string{"MAIL_PROVIDER": "resend"},
			wantErr: "RESEND_API_KEY",
		},
		{
			name:    "zero price",
			env:     map[string]string{"PRODUCT_PRICE": "0"},
			wantErr: "PRODUCT_PRICE",
		},
		{
			name:    "malformed trusted proxy",
			env:     map[string]string{"TRUSTED_PROXIES": "10.0.0.1, not-an-ip"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "bad repo type",
			env:     map[string]string{"REPO_TYPE": "postgres"},
			wantErr: "REPO_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
