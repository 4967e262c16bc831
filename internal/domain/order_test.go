package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewOrder(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		email   string
		wantErr error
	}{
		{name: "valid order", amount: "19.99", email: "ana@example.com"},
		{name: "email is optional", amount: "19.99"},
		{name: "zero amount", amount: "0", wantErr: ErrInvalidAmount},
		{name: "negative amount", amount: "-1.00", wantErr: ErrInvalidAmount},
		{name: "bad email", amount: "19.99", email: "not-an-email", wantErr: ErrInvalidEmail},
		{name: "display name is rejected", amount: "19.99", email: "Ana <ana@example.com>", wantErr: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder("PAY-1", MethodPayPal, decimal.RequireFromString(tt.amount), "usd", tt.email)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != OrderCreated {
				t.Errorf("expected status created, got %v", order.Status)
			}
			if order.Currency != "USD" {
				t.Errorf("expected currency upper-cased, got %q", order.Currency)
			}
		})
	}
}

func TestOrder_Transition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderCreated, OrderCaptured, true},
		{OrderCreated, OrderFailed, true},
		{OrderCaptured, OrderDelivered, true},
		{OrderCreated, OrderDelivered, false},
		{OrderFailed, OrderCaptured, false},
		{OrderDelivered, OrderDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := &Order{Status: tt.from}
			err := o.Transition(tt.to)

			if tt.ok {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if o.Status != tt.to {
					t.Errorf("expected status %v, got %v", tt.to, o.Status)
				}
				return
			}

			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if o.Status != tt.from {
				t.Errorf("status changed on rejected transition: %v", o.Status)
			}
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := map[string]PaymentMethod{
		"":            MethodPayPal,
		"paypal":      MethodPayPal,
		"ApplePay":    MethodApplePay,
		" googlepay ": MethodGooglePay,
	}

	for in, want := range tests {
		got, err := ParsePaymentMethod(in)
		if err != nil {
			t.Errorf("ParsePaymentMethod(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePaymentMethod(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParsePaymentMethod_Unknown(t *testing.T) {
	for _, in := range []string{"bitcoin", "pay pal", "cash"} {
		_, err := ParsePaymentMethod(in)
		if !errors.Is(err, ErrInvalidPaymentMethod) {
			t.Errorf("ParsePaymentMethod(%q) error = %v, want ErrInvalidPaymentMethod", in, err)
		}
		if !IsValidation(err) {
			t.Errorf("ParsePaymentMethod(%q) error should be a validation error", in)
		}
	}
}
