package ports_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/bazi-reading/internal/adapters/memory"
	"github.com/quentinrf/bazi-reading/internal/adapters/mock"
	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
)

// textRenderer writes the reading as plain text so tests can read it back
type textRenderer struct {
	docs []ports.Document
	err  error
}

func (r *textRenderer) Render(doc ports.Document, w io.Writer) error {
	if r.err != nil {
		return r.err
	}
	r.docs = append(r.docs, doc)
	_, err := io.WriteString(w, doc.Title+"\n"+doc.Reading)
	return err
}

func (r *textRenderer) ContentType() string { return "text/plain" }
func (r *textRenderer) Extension() string   { return ".txt" }

func TestCourier_Deliver(t *testing.T) {
	renderer := &textRenderer{}
	mailer := mock.NewFakeMailer()
	courier := ports.NewCourier(renderer, mailer, nil)

	id, err := courier.Deliver(context.Background(), ports.DeliveryRequest{
		Email:   "ana@example.com",
		Name:    "Ana Lúcia",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "## Your Core Nature\n\nSteady.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, renderer.docs, 1)
	doc := renderer.docs[0]
	assert.Equal(t, ports.DocumentTitle, doc.Title)
	assert.Equal(t, "Ana Lúcia", doc.Name)
	assert.Equal(t, domain.Horse, doc.Chart.Animal)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, ports.DocumentTitle, msg.Subject)
	assert.Contains(t, msg.HTML, "Dear Ana Lúcia")
	assert.Contains(t, msg.HTML, "Metal Horse")
	assert.Contains(t, msg.Text, "life path number 9")

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "four-pillars-reading-ana-lcia.txt", att.Filename)
	assert.Equal(t, "text/plain", att.ContentType)
	assert.True(t, bytes.Contains(att.Content, []byte("Steady.")))
}

func TestCourier_EscapesNameInHTML(t *testing.T) {
	mailer := mock.NewFakeMailer()
	courier := ports.NewCourier(&textRenderer{}, mailer, nil)

	_, err := courier.Deliver(context.Background(), ports.DeliveryRequest{
		Email:   "ana@example.com",
		Name:    "<script>x</script>",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "Hello",
	})
	require.NoError(t, err)

	html := mailer.Sent()[0].HTML
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestCourier_MarksOrderDelivered(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()

	order, err := domain.NewOrder("PAY-42", domain.MethodPayPal, decimal.RequireFromString("9.99"), "USD", "")
	require.NoError(t, err)
	order.Status = domain.OrderCaptured
	require.NoError(t, repo.Save(ctx, order))

	courier := ports.NewCourier(&textRenderer{}, mock.NewFakeMailer(), repo)
	_, err = courier.Deliver(ctx, ports.DeliveryRequest{
		Email:   "ana@example.com",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "Hello",
		OrderID: "PAY-42",
	})
	require.NoError(t, err)

	got, err := repo.GetByPaymentID(ctx, "PAY-42")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, got.Status)
}

func TestCourier_UnknownOrderStillDelivers(t *testing.T) {
	mailer := mock.NewFakeMailer()
	courier := ports.NewCourier(&textRenderer{}, mailer, memory.NewOrderRepository())

	_, err := courier.Deliver(context.Background(), ports.DeliveryRequest{
		Email:   "ana@example.com",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "Hello",
		OrderID: "PAY-UNKNOWN",
	})
	require.NoError(t, err)
	assert.Len(t, mailer.Sent(), 1)
}

func TestCourier_Errors(t *testing.T) {
	valid := ports.DeliveryRequest{
		Email:   "ana@example.com",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "Hello",
	}

	tests := []struct {
		name    string
		modify  func(r *ports.DeliveryRequest)
		wantErr error
	}{
		{"missing email", func(r *ports.DeliveryRequest) { r.Email = "" }, domain.ErrInvalidEmail},
		{"blank reading", func(r *ports.DeliveryRequest) { r.Reading = " \n " }, domain.ErrEmptyReading},
		{"bad birth date", func(r *ports.DeliveryRequest) { r.Birth.Day = 31; r.Birth.Month = 4 }, domain.ErrInvalidBirthDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := mock.NewFakeMailer()
			req := valid
			tt.modify(&req)

			_, err := ports.NewCourier(&textRenderer{}, mailer, nil).Deliver(context.Background(), req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, mailer.Sent())
		})
	}
}

func TestCourier_RenderFailure(t *testing.T) {
	mailer := mock.NewFakeMailer()
	courier := ports.NewCourier(&textRenderer{err: errors.New("font missing")}, mailer, nil)

	_, err := courier.Deliver(context.Background(), ports.DeliveryRequest{
		Email:   "ana@example.com",
		Birth:   domain.BirthInput{Year: 1990, Month: 5, Day: 12},
		Reading: "Hello",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "font missing")
	assert.Empty(t, mailer.Sent())
}
