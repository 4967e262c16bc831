package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quentinrf/bazi-reading/internal/ports"
)

// FakeGateway simulates a payment provider for development
// This implements the ports.PaymentGateway and ports.MerchantValidator interfaces
type FakeGateway struct {
	mu       sync.Mutex
	orders   map[string]ports.CheckoutRequest
	captured map[string]bool
	declined bool
	failNext error
}

// NewFakeGateway creates a gateway that approves every capture
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		orders:   make(map[string]ports.CheckoutRequest),
		captured: make(map[string]bool),
	}
}

// Decline makes later captures come back DECLINED
func (g *FakeGateway) Decline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declined = true
}

// FailNextCapture makes the next CaptureOrder call return err without
// touching the order, as a provider timeout would
func (g *FakeGateway) FailNextCapture(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = err
}

// CreateOrder returns a new order in CREATED status
func (g *FakeGateway) CreateOrder(ctx context.Context, req ports.CheckoutRequest) (*ports.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:17]
	g.orders[id] = req
	return &ports.PaymentOrder{ID: id, Status: "CREATED"}, nil
}

// CaptureOrder completes an order created earlier
func (g *FakeGateway) CaptureOrder(ctx context.Context, orderID string) (*ports.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failNext; err != nil {
		g.failNext = nil
		return nil, err
	}
	if _, ok := g.orders[orderID]; !ok {
		return nil, fmt.Errorf("order %s does not exist", orderID)
	}
	if g.captured[orderID] {
		return nil, fmt.Errorf("order %s already captured", orderID)
	}
	if g.declined {
		return &ports.PaymentOrder{ID: orderID, Status: "DECLINED"}, nil
	}

	g.captured[orderID] = true
	return &ports.PaymentOrder{
		ID:         orderID,
		Status:     ports.StatusCompleted,
		PayerEmail: "buyer@example.com",
		PayerName:  "Test Buyer",
	}, nil
}

// ValidateMerchant returns a dummy merchant session
func (g *FakeGateway) ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error) {
	session := map[string]interface{}{
		"merchantSessionIdentifier": uuid.NewString(),
		"displayName":               "Four Pillars (test)",
		"validationURL":             validationURL,
	}
	return json.Marshal(session)
}
