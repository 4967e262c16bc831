package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// timeLayout is fixed-width so string comparison orders by time.
const timeLayout = "2006-01-02 15:04:05"

// OrderRepository implements domain.OrderRepository with SQLite
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a SQLite-backed repository
func NewOrderRepository(dbPath string) (*OrderRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table if not exists
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL UNIQUE,
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &OrderRepository{db: db}, nil
}

// Save stores an order in SQLite
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	query := `
		INSERT INTO orders (id, payment_id, method, amount, currency, status, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.PaymentID,
		string(order.Method),
		order.Amount.String(),
		order.Currency,
		string(order.Status),
		order.Email,
		order.CreatedAt.UTC().Format(timeLayout),
		order.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// Get retrieves an order by ID
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, payment_id, method, amount, currency, status, email, created_at, updated_at
		FROM orders WHERE id = ?
	`
	return r.queryOne(ctx, query, id)
}

// GetByPaymentID retrieves an order by the provider's order ID
func (r *OrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	query := `
		SELECT id, payment_id, method, amount, currency, status, email, created_at, updated_at
		FROM orders WHERE payment_id = ?
	`
	return r.queryOne(ctx, query, paymentID)
}

// UpdateStatus moves an order to status if the transition is allowed
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.Transition(status); err != nil {
		return nil, err
	}

	// Guard on the previous status so concurrent updates cannot both win
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(order.Status),
		order.UpdatedAt.UTC().Format(timeLayout),
		id,
		string(previous),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", domain.ErrInvalidTransition)
	}

	return order, nil
}

// DeleteOlderThan removes orders created before now-olderThan
func (r *OrderRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := `DELETE FROM orders WHERE created_at < ?`

	result, err := r.db.ExecContext(ctx, query, cutoff.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old orders: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}

// Close closes the database connection
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

func (r *OrderRepository) queryOne(ctx context.Context, query string, arg string) (*domain.Order, error) {
	var (
		order                  domain.Order
		method, amount, status string
		createdAt, updatedAt   string
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&order.ID,
		&order.PaymentID,
		&method,
		&amount,
		&order.Currency,
		&status,
		&order.Email,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order.Method = domain.PaymentMethod(method)
	order.Status = domain.OrderStatus(status)

	order.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	order.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	order.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	return &order, nil
}
