package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// OrderRepository implements domain.OrderRepository with in-memory storage
// This is perfect for development - no database setup needed
type OrderRepository struct {
	mu        sync.RWMutex
	orders    map[string]*domain.Order
	byPayment map[string]string
}

// NewOrderRepository creates an empty in-memory repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:    make(map[string]*domain.Order),
		byPayment: make(map[string]string),
	}
}

// Save stores an order in memory
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Assign ID if not set
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	stored := *order
	r.orders[order.ID] = &stored
	if order.PaymentID != "" {
		r.byPayment[order.PaymentID] = order.ID
	}
	return nil
}

// Get retrieves an order by ID
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}

	out := *order
	return &out, nil
}

// GetByPaymentID retrieves an order by the provider's order ID
func (r *OrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	r.mu.RLock()
	id, exists := r.byPayment[paymentID]
	r.mu.RUnlock()

	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	return r.Get(ctx, id)
}

// UpdateStatus moves an order to status if the transition is allowed
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	if err := order.Transition(status); err != nil {
		return nil, err
	}

	out := *order
	return &out, nil
}

// DeleteOlderThan removes orders created before now-olderThan
func (r *OrderRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)

	var deleted int64
	for id, order := range r.orders {
		if order.CreatedAt.Before(cutoff) {
			delete(r.orders, id)
			delete(r.byPayment, order.PaymentID)
			deleted++
		}
	}

	return deleted, nil
}
