package ports

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// Analyst turns a prompt into a long-form reading
// This is a PORT - adapters (OpenAI, Gemini, Mock) will implement it
type Analyst interface {
	// CompleteWithSystem sends a system and user message and returns the text
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Provider names the backing service, e.g. "openai"
	Provider() string

	// Model names the model used for completions
	Model() string
}

// CheckoutRequest describes what the customer is paying for.
type CheckoutRequest struct {
	ReferenceID string
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// PaymentOrder is the provider's view of an order.
type PaymentOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PayerEmail string `json:"payerEmail,omitempty"`
	PayerName  string `json:"payerName,omitempty"`
}

// PaymentGateway creates and captures orders
// This is a PORT - adapters (PayPal, Mock) will implement it
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CheckoutRequest) (*PaymentOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*PaymentOrder, error)
}

// MerchantValidator obtains an Apple Pay merchant session.
type MerchantValidator interface {
	ValidateMerchant(ctx context.Context, validationURL string) (json.RawMessage, error)
}

// Attachment is a file sent along with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Mailer delivers email
// This is a PORT - adapters (Resend, Mock) will implement it
type Mailer interface {
	// Send returns the provider's message ID
	Send(ctx context.Context, msg Message) (string, error)
}

// Document is everything the renderer draws.
type Document struct {
	Title       string
	Name        string
	Birth       domain.BirthInput
	Chart       *domain.Chart
	Reading     string
	GeneratedAt time.Time
}

// DocumentRenderer writes a document in its output format to w.
type DocumentRenderer interface {
	Render(doc Document, w io.Writer) error
	ContentType() string
	Extension() string
}
