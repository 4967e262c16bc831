package ports

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// DocumentTitle is the heading of every rendered reading.
const DocumentTitle = "Your Four Pillars Destiny Reading"

// DeliveryRequest is a finished reading on its way to the customer.
type DeliveryRequest struct {
	Email   string
	Name    string
	Birth   domain.BirthInput
	Reading string
	OrderID string
}

// Courier renders a reading and emails it as an attachment
type Courier struct {
	renderer DocumentRenderer
	mailer   Mailer
	repo     domain.OrderRepository
	now      func() time.Time
}

// NewCourier creates a courier. repo may be nil when no ledger is kept.
func NewCourier(renderer DocumentRenderer, mailer Mailer, repo domain.OrderRepository) *Courier {
	return &Courier{
		renderer: renderer,
		mailer:   mailer,
		repo:     repo,
		now:      time.Now,
	}
}

// Deliver renders the document, sends it and marks the order delivered
func (c *Courier) Deliver(ctx context.Context, req DeliveryRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Reading) == "" {
		return "", domain.ErrEmptyReading
	}

	birth := req.Birth
	if birth.Name == "" {
		birth.Name = req.Name
	}
	chart, err := domain.NewChart(birth)
	if err != nil {
		return "", err
	}

	doc := Document{
		Title:       DocumentTitle,
		Name:        strings.TrimSpace(birth.Name),
		Birth:       birth,
		Chart:       chart,
		Reading:     req.Reading,
		GeneratedAt: c.now().UTC(),
	}

	var buf bytes.Buffer
	if err := c.renderer.Render(doc, &buf); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}

	html, err := renderEmailBody(doc)
	if err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}

	id, err := c.mailer.Send(ctx, Message{
		To:      email,
		Subject: DocumentTitle,
		HTML:    html,
		Text:    plainEmailBody(doc),
		Attachments: []Attachment{{
			Filename:    attachmentName(doc, c.renderer.Extension()),
			ContentType: c.renderer.ContentType(),
			Content:     buf.Bytes(),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	log.Info().
		Str("message_id", id).
		Int("attachment_bytes", buf.Len()).
		Msg("delivered reading")

	if req.OrderID != "" && c.repo != nil {
		c.markDelivered(ctx, req.OrderID)
	}

	return id, nil
}

func (c *Courier) markDelivered(ctx context.Context, paymentID string) {
	order, err := c.repo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("cannot mark delivery")
		return
	}
	if _, err := c.repo.UpdateStatus(ctx, order.ID, domain.OrderDelivered); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID).Msg("cannot mark delivery")
	}
}

func attachmentName(doc Document, ext string) string {
	base := "four-pillars-reading"
	if doc.Name != "" {
		var b strings.Builder
		for _, r := range strings.ToLower(doc.Name) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
			case r == ' ' || r == '-' || r == '_':
				b.WriteRune('-')
			}
		}
		if slug := strings.Trim(b.String(), "-"); slug != "" {
			base += "-" + slug
		}
	}
	return base + ext
}

var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family: Georgia, serif; color: #2b2135;">
<h1 style="color: #7a3e9d;">{{.Title}}</h1>
<p>Dear {{if .Name}}{{.Name}}{{else}}friend{{end}},</p>
<p>Thank you for your purchase. Your personalized reading is attached as a PDF.</p>
<p>You were born in the year of the <strong>{{.Chart.Element}} {{.Chart.Animal}}</strong>,
with life path number <strong>{{.Chart.LifePath}}</strong>.</p>
<p>With warm wishes for the road ahead.</p>
</body></html>`))

func renderEmailBody(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func plainEmailBody(doc Document) string {
	name := doc.Name
	if name == "" {
		name = "friend"
	}
	return fmt.Sprintf("Dear %s,\n\nThank you for your purchase. Your personalized reading is attached as a PDF.\n"+
		"You were born in the year of the %s %s, with life path number %d.\n",
		name, doc.Chart.Element, doc.Chart.Animal, doc.Chart.LifePath)
}
