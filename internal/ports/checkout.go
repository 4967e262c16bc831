package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// Provider status of a successfully captured order.
const StatusCompleted = "COMPLETED"

// Product is the single item on sale.
type Product struct {
	Name     string
	Price    decimal.Decimal
	Currency string
}

// Checkout drives the payment provider and keeps the order ledger in step
type Checkout struct {
	gateway PaymentGateway
	repo    domain.OrderRepository
	product Product
}

// NewCheckout creates a checkout for product
func NewCheckout(gateway PaymentGateway, repo domain.OrderRepository, product Product) *Checkout {
	return &Checkout{
		gateway: gateway,
		repo:    repo,
		product: product,
	}
}

// Product returns what this checkout sells
func (c *Checkout) Product() Product {
	return c.product
}

// Create opens a provider order for the product and records it in the ledger
func (c *Checkout) Create(ctx context.Context, method domain.PaymentMethod, email string) (*PaymentOrder, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	ref := uuid.NewString()
	po, err := c.gateway.CreateOrder(ctx, CheckoutRequest{
		ReferenceID: ref,
		Description: c.product.Name,
		Amount:      c.product.Price,
		Currency:    c.product.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	order, err := domain.NewOrder(po.ID, method, c.product.Price, c.product.Currency, email)
	if err != nil {
		return nil, err
	}
	order.ID = ref

	if err := c.repo.Save(ctx, order); err != nil {
		// Don't fail - the customer can still pay
		log.Error().Err(err).Str("payment_id", po.ID).Msg("failed to record order")
	}

	log.Info().
		Str("order_id", ref).
		Str("payment_id", po.ID).
		Str("method", string(method)).
		Str("amount", c.product.Price.StringFixed(2)).
		Msg("created order")

	return po, nil
}

// Capture captures a provider order and marks the ledger entry captured or
// failed. A gateway error leaves the entry untouched so the buyer can retry.
func (c *Checkout) Capture(ctx context.Context, paymentID string) (*PaymentOrder, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, domain.ErrMissingOrderID
	}

	po, err := c.gateway.CaptureOrder(ctx, paymentID)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("capture attempt failed")
		return nil, fmt.Errorf("capture payment order: %w", err)
	}

	if po.Status == StatusCompleted {
		c.mark(ctx, paymentID, domain.OrderCaptured)
	} else {
		c.mark(ctx, paymentID, domain.OrderFailed)
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("status", po.Status).
		Msg("captured order")

	return po, nil
}

// mark updates the ledger; a missing or stale ledger row never fails the request
func (c *Checkout) mark(ctx context.Context, paymentID string, status domain.OrderStatus) {
	order, err := c.repo.GetByPaymentID(ctx, paymentID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		log.Warn().Str("payment_id", paymentID).Msg("order not in ledger")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to load order")
		return
	}

	if _, err := c.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		log.Error().Err(err).
			Str("order_id", order.ID).
			Str("status", string(status)).
			Msg("failed to update order status")
	}
}
