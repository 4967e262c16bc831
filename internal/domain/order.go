package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks where a purchase is in its short life.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderCaptured  OrderStatus = "captured"
	OrderFailed    OrderStatus = "failed"
	OrderDelivered OrderStatus = "delivered"
)

// PaymentMethod is the wallet the customer paid with.
type PaymentMethod string

const (
	MethodPayPal    PaymentMethod = "paypal"
	MethodApplePay  PaymentMethod = "applepay"
	MethodGooglePay PaymentMethod = "googlepay"
)

// ParsePaymentMethod maps a request value to a method. An empty value means
// PayPal.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodPayPal, nil
	case MethodPayPal, MethodApplePay, MethodGooglePay:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
}

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderCreated:  {OrderCaptured, OrderFailed},
	OrderCaptured: {OrderDelivered},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a ledger row for one purchase of a reading
type Order struct {
	ID        string
	PaymentID string
	Method    PaymentMethod
	Amount    decimal.Decimal
	Currency  string
	Status    OrderStatus
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder creates a ledger entry in the created state with validation
func NewOrder(paymentID string, method PaymentMethod, amount decimal.Decimal, currency, email string) (*Order, error) {
	// Business rule: an order always costs something
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if email != "" {
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &Order{
		PaymentID: paymentID,
		Method:    method,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Status:    OrderCreated,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the order to status, enforcing the allowed transitions.
func (o *Order) Transition(status OrderStatus) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateEmail checks addr is a single bare address.
func ValidateEmail(addr string) error {
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != strings.TrimSpace(addr) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, addr)
	}
	return nil
}
