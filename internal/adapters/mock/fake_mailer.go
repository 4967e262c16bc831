package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/quentinrf/bazi-reading/internal/ports"
)

// FakeMailer keeps sent messages in memory
// This implements the ports.Mailer interface
type FakeMailer struct {
	mu   sync.Mutex
	sent []ports.Message
}

// NewFakeMailer creates an empty mailbox
func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

// Send records msg and returns a random message ID
func (m *FakeMailer) Send(ctx context.Context, msg ports.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, msg)
	return uuid.NewString(), nil
}

// Sent returns every message sent so far
func (m *FakeMailer) Sent() []ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Message(nil), m.sent...)
}
