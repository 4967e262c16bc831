package domain

import (
	"context"
	"time"
)

// OrderRepository defines operations for the order ledger
// This is a PORT - adapters (SQLite, Memory) will implement it
type OrderRepository interface {
	// Save persists a new order and assigns its ID when empty
	Save(ctx context.Context, order *Order) error

	// Get retrieves an order by ledger ID
	Get(ctx context.Context, id string) (*Order, error)

	// GetByPaymentID retrieves an order by the provider's order ID
	GetByPaymentID(ctx context.Context, paymentID string) (*Order, error)

	// UpdateStatus moves an order to a new status.
	// Returns ErrInvalidTransition when the change is not allowed.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)

	// DeleteOlderThan removes orders created before now-olderThan and
	// returns how many were removed
	DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}
