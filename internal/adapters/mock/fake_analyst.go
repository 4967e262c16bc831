package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quentinrf/bazi-reading/internal/prompt"
)

// FakeAnalyst produces a canned reading for development
// This implements the ports.Analyst interface
type FakeAnalyst struct {
	mu    sync.Mutex
	calls []string
	err   error
}

// NewFakeAnalyst creates an analyst that never calls a real model
func NewFakeAnalyst() *FakeAnalyst {
	return &FakeAnalyst{}
}

// FailWith makes every later call return err
func (a *FakeAnalyst) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// CompleteWithSystem returns one short paragraph per reading section.
// The user prompt is echoed back so tests can see what was asked.
func (a *FakeAnalyst) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, userPrompt)
	err := a.err
	a.mu.Unlock()

	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, section := range prompt.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section)
		fmt.Fprintf(&b, "This is a sample paragraph about %s. The stars are kind today.\n\n", strings.ToLower(section))
	}
	b.WriteString("---\n")
	b.WriteString(userPrompt)
	return b.String(), nil
}

// Calls returns the user prompts received so far
func (a *FakeAnalyst) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Provider is always "mock"
func (a *FakeAnalyst) Provider() string { return "mock" }

// Model is always "mock"
func (a *FakeAnalyst) Model() string { return "mock" }
