// Package applepay requests Apple Pay merchant sessions.
package applepay

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// Config holds the merchant identity used for validation.
type Config struct {
	MerchantID  string
	DisplayName string
	Domain      string
	// TLS carries the merchant identity certificate
	TLS     *tls.Config
	Timeout time.Duration
	// AllowedHostSuffix restricts validation URLs; defaults to ".apple.com"
	AllowedHostSuffix string
	// HTTPClient replaces the client built from TLS and Timeout
	HTTPClient *http.Client
}

// Validator implements ports.MerchantValidator
type Validator struct {
	merchantID  string
	displayName string
	domain      string
	hostSuffix  string
	httpClient  *http.Client
}

type sessionRequest struct {
	MerchantIdentifier string `json:"merchantIdentifier"`
	DisplayName        string `json:"displayName"`
	Initiative         string `json:"initiative"`
	InitiativeContext  string `json:"initiativeContext"`
}

// NewValidator creates a validator for the configured merchant
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.MerchantID == "" || cfg.Domain == "" {
		return nil, errors.New("Apple Pay merchant id and domain are required")
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.Domain
	}
	if cfg.AllowedHostSuffix == "" {
		cfg.AllowedHostSuffix = ".apple.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		if cfg.TLS == nil {
			return nil, errors.New("Apple Pay merchant identity certificate is required")
		}
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{TLSClientConfig: cfg.TLS},
		}
	}

	return &Validator{
		merchantID:  cfg.MerchantID,
		displayName: cfg.DisplayName,
		domain:      cfg.Domain,
		hostSuffix:  cfg.AllowedHostSuffix,
		httpClient:  client,
	}, nil
}

// ValidateMerchant posts the merchant identity to Apple's validation URL and
// returns the opaque merchant session for the browser
func (v *Validator) ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error) {
	if err := v.checkURL(validationURL); err != nil {
		return nil, err
	}

	body, err := json.Marshal(sessionRequest{
		MerchantIdentifier: v.merchantID,
		DisplayName:        v.displayName,
		Initiative:         "web",
		InitiativeContext:  v.domain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validationURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("merchant validation failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if !json.Valid(raw) {
		return nil, errors.New("merchant validation returned invalid JSON")
	}

	log.Info().Str("host", req.URL.Host).Msg("validated Apple Pay merchant")
	return json.RawMessage(raw), nil
}

// checkURL refuses anything but https on an allowed host so the endpoint
// cannot be used to make the server call arbitrary URLs with its certificate
func (v *Validator) checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidValidationURL, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be https", domain.ErrInvalidValidationURL)
	}
	host := u.Hostname()
	suffix := strings.TrimPrefix(v.hostSuffix, ".")
	if host != suffix && !strings.HasSuffix(host, "."+suffix) {
		return fmt.Errorf("%w: host %q not allowed", domain.ErrInvalidValidationURL, host)
	}
	return nil
}
