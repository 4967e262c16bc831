// Package resend sends email through the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/ports"
)

// Config holds the Resend credentials and sender
type Config struct {
	APIKey string
	From   string
	// BaseURL overrides the API endpoint, mainly for tests
	BaseURL string
}

// Mailer implements ports.Mailer
type Mailer struct {
	client *resend.Client
	from   string
}

// NewMailer creates a Resend-backed mailer
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Resend API key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}

	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
			base.Path += "/"
		}
		client.BaseURL = base
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

// Send delivers msg and returns the Resend message ID
func (m *Mailer) Send(ctx context.Context, msg ports.Message) (string, error) {
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Content:  a.Content,
			Filename: a.Filename,
		})
	}

	sent, err := m.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}

	log.Debug().
		Str("message_id", sent.Id).
		Int("attachments", len(req.Attachments)).
		Msg("email accepted by Resend")

	return sent.Id, nil
}
