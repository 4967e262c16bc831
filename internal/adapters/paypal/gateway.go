// Package paypal implements the payment gateway on the PayPal Orders v2 API.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paypalsdk "github.com/plutov/paypal/v4"

	"github.com/quentinrf/bazi-reading/internal/ports"
)

// Config holds PayPal REST credentials.
type Config struct {
	ClientID string
	Secret   string
	// Mode is "sandbox" or "live"
	Mode string
	// BaseURL overrides the API base chosen by Mode
	BaseURL string
}

// Gateway implements ports.PaymentGateway with the PayPal SDK
type Gateway struct {
	client *paypalsdk.Client
}

// NewGateway creates a gateway for the configured environment
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("PayPal client id and secret are required")
	}

	base := paypalsdk.APIBaseSandBox
	if strings.EqualFold(cfg.Mode, "live") {
		base = paypalsdk.APIBaseLive
	}
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}

	client, err := paypalsdk.NewClient(cfg.ClientID, cfg.Secret, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create PayPal client: %w", err)
	}

	return &Gateway{client: client}, nil
}

// CreateOrder opens a CAPTURE order for one purchase unit
func (g *Gateway) CreateOrder(ctx context.Context, req ports.CheckoutRequest) (*ports.PaymentOrder, error) {
	units := []paypalsdk.PurchaseUnitRequest{{
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Amount: &paypalsdk.PurchaseUnitAmount{
			Currency: strings.ToUpper(req.Currency),
			Value:    req.Amount.StringFixed(2),
		},
	}}

	order, err := g.client.CreateOrder(ctx, paypalsdk.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, err
	}

	return &ports.PaymentOrder{
		ID:     order.ID,
		Status: order.Status,
	}, nil
}

// CaptureOrder captures an approved order
func (g *Gateway) CaptureOrder(ctx context.Context, orderID string) (*ports.PaymentOrder, error) {
	resp, err := g.client.CaptureOrder(ctx, orderID, paypalsdk.CaptureOrderRequest{})
	if err != nil {
		return nil, err
	}

	out := &ports.PaymentOrder{
		ID:     resp.ID,
		Status: resp.Status,
	}
	if resp.Payer != nil {
		out.PayerEmail = resp.Payer.EmailAddress
		if resp.Payer.Name != nil {
			out.PayerName = strings.TrimSpace(resp.Payer.Name.GivenName + " " + resp.Payer.Name.Surname)
		}
	}
	return out, nil
}
