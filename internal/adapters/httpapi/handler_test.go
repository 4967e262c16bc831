package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/bazi-reading/internal/adapters/memory"
	"github.com/quentinrf/bazi-reading/internal/adapters/mock"
	"github.com/quentinrf/bazi-reading/internal/adapters/pdf"
	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
)

type testServer struct {
	router  http.Handler
	analyst *mock.FakeAnalyst
	gateway *mock.FakeGateway
	mailer  *mock.FakeMailer
	repo    *memory.OrderRepository
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()

	analyst := mock.NewFakeAnalyst()
	gateway := mock.NewFakeGateway()
	mailer := mock.NewFakeMailer()
	repo := memory.NewOrderRepository()

	product := ports.Product{Name: "Four Pillars Reading", Price: decimal.RequireFromString("9.99"), Currency: "USD"}
	h := NewHandler(
		ports.NewReader(analyst),
		ports.NewCheckout(gateway, repo, product),
		gateway,
		ports.NewCourier(pdf.NewRenderer("test"), mailer, repo),
	)

	return &testServer{
		router:  NewRouter(h, limiter, NewMetrics()),
		analyst: analyst,
		gateway: gateway,
		mailer:  mailer,
		repo:    repo,
	}
}

func (s *testServer) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/analyze", `{"year":1990,"month":5,"day":12,"hour":8,"name":"Ana","situation":"career"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "mock", body["provider"])
	assert.Equal(t, "mock", body["model"])
	assert.Contains(t, body["reading"], "## Your Core Nature")

	chart, ok := body["chart"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Metal", chart["element"])
	assert.Equal(t, "Horse", chart["animal"])
	assert.Equal(t, "Yang", chart["polarity"])
	assert.Equal(t, "Dragon", chart["hourAnimal"])
	assert.EqualValues(t, 9, chart["lifePath"])

	require.Len(t, s.analyst.Calls(), 1)
	assert.Contains(t, s.analyst.Calls()[0], "focused on career change")
}

func TestAnalyze_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"year":`},
		{"empty body", ``},
		{"impossible date", `{"year":2023,"month":2,"day":29}`},
		{"hour out of range", `{"year":1990,"month":5,"day":12,"hour":24}`},
		{"unknown situation", `{"year":1990,"month":5,"day":12,"situation":"astronaut"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := s.post(t, "/api/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
			assert.Empty(t, s.analyst.Calls())
		})
	}
}

func TestAnalyze_ProviderFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.analyst.FailWith(errors.New("upstream unavailable"))

	rec := s.post(t, "/api/analyze", `{"year":1990,"month":5,"day":12}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "upstream unavailable")
}

func TestAnalyze_RateLimited(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(0.001, 2))
	body := `{"year":1990,"month":5,"day":12}`

	assert.Equal(t, http.StatusOK, s.post(t, "/api/analyze", body).Code)
	assert.Equal(t, http.StatusOK, s.post(t, "/api/analyze", body).Code)

	rec := s.post(t, "/api/analyze", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Len(t, s.analyst.Calls(), 2)
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	rec := s.post(t, "/api/paypal/create-order", `{"email":"ana@example.com","method":"googlepay"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "CREATED", created["status"])
	assert.Equal(t, "9.99", created["amount"])
	assert.Equal(t, "USD", created["currency"])
	paymentID, _ := created["id"].(string)
	require.NotEmpty(t, paymentID)

	order, err := s.repo.GetByPaymentID(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCreated, order.Status)
	assert.Equal(t, domain.MethodGooglePay, order.Method)
	assert.Equal(t, "9.99", order.Amount.StringFixed(2))

	rec = s.post(t, "/api/paypal/capture-order", `{"orderID":"`+paymentID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	captured := decode(t, rec)
	assert.Equal(t, ports.StatusCompleted, captured["status"])
	assert.Equal(t, map[string]interface{}{"email": "buyer@example.com", "name": "Test Buyer"}, captured["payer"])

	order, err = s.repo.GetByPaymentID(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCaptured, order.Status)

	rec = s.post(t, "/api/send-email", `{
		"email":"ana@example.com",
		"name":"Ana",
		"reading":"## Your Core Nature\n\nSteady and bright.",
		"birth":{"year":1990,"month":5,"day":12},
		"orderID":"`+paymentID+`"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["id"])

	order, err = s.repo.GetByPaymentID(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, order.Status)
}

func TestCreateOrder_InvalidEmail(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/paypal/create-order", `{"email":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_UnknownMethod(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/paypal/create-order", `{"email":"ana@example.com","method":"bitcoin"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported payment method")

	// nothing was recorded, so sweeping everything removes nothing
	n, err := s.repo.DeleteOlderThan(context.Background(), -time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCaptureOrder_RetryAfterGatewayError(t *testing.T) {
	s := newTestServer(t, nil)

	created := decode(t, s.post(t, "/api/paypal/create-order", `{}`))
	paymentID := created["id"].(string)

	s.gateway.FailNextCapture(errors.New("connection reset by peer"))
	rec := s.post(t, "/api/paypal/capture-order", `{"orderID":"`+paymentID+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	order, err := s.repo.GetByPaymentID(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCreated, order.Status)

	rec = s.post(t, "/api/paypal/capture-order", `{"orderID":"`+paymentID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ports.StatusCompleted, decode(t, rec)["status"])

	order, err = s.repo.GetByPaymentID(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCaptured, order.Status)
}

func TestCaptureOrder_Declined(t *testing.T) {
	s := newTestServer(t, nil)
	s.gateway.Decline()

	created := decode(t, s.post(t, "/api/paypal/create-order", `{}`))
	paymentID := created["id"].(string)

	rec := s.post(t, "/api/paypal/capture-order", `{"orderID":"`+paymentID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DECLINED", decode(t, rec)["status"])

	order, err := s.repo.GetByPaymentID(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFailed, order.Status)
}

func TestCaptureOrder_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, s.post(t, "/api/paypal/capture-order", `{}`).Code)
	assert.Equal(t, http.StatusInternalServerError, s.post(t, "/api/paypal/capture-order", `{"orderID":"UNKNOWN"}`).Code)
}

func TestValidateMerchant(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/paypal/validate-merchant", `{"validationURL":"https://apple-pay-gateway.apple.com/paymentservices/startSession"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["merchantSessionIdentifier"])

	rec = s.post(t, "/api/paypal/validate-merchant", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEmail(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/send-email", `{"email":"ana@example.com","reading":"Hello","birth":{"year":1990,"month":5,"day":12,"name":"Ana Maria"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sent := s.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@example.com", sent[0].To)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "four-pillars-reading-ana-maria.pdf", sent[0].Attachments[0].Filename)
	assert.True(t, bytes.HasPrefix(sent[0].Attachments[0].Content, []byte("%PDF-")))
}

func TestSendEmail_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"reading":"Hello","birth":{"year":1990,"month":5,"day":12}}`},
		{"empty reading", `{"email":"ana@example.com","reading":"  ","birth":{"year":1990,"month":5,"day":12}}`},
		{"invalid birth", `{"email":"ana@example.com","reading":"Hello","birth":{"year":1990,"month":2,"day":30}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := s.post(t, "/api/send-email", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, s.mailer.Sent())
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = s.post(t, "/api/paypal/create-order", `{}`)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTraceID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.post(t, "/api/paypal/create-order", `{}`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Trace-ID"))
}

func TestTraceID_RejectsUnsafeValues(t *testing.T) {
	s := newTestServer(t, nil)

	for _, id := range []string{
		strings.Repeat("a", 65),
		"trace 123",
		"trace\u2028id",
		"<script>",
		"id;rm -rf",
	} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Trace-ID", id)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		got := rec.Header().Get("X-Trace-ID")
		assert.NotEqual(t, id, got)
		assert.Len(t, got, 36, "expected a fresh uuid for %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", strings.Repeat("b", 64))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, strings.Repeat("b", 64), rec.Header().Get("X-Trace-ID"))
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.post(t, "/api/paypal/create-order", `{}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bazi_http_requests_total{method="POST",route="/api/paypal/create-order",status="200"} 1`)
}

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		xff     []string
		want    string
	}{
		{
			name:   "remote address without proxies",
			remote: "198.51.100.4:5123",
			want:   "198.51.100.4",
		},
		{
			name:   "forwarded header ignored without trusted proxies",
			remote: "198.51.100.4:5123",
			xff:    []string{"203.0.113.9"},
			want:   "198.51.100.4",
		},
		{
			name:    "forwarded header ignored from untrusted peer",
			trusted: proxies,
			remote:  "198.51.100.4:5123",
			xff:     []string{"203.0.113.9"},
			want:    "198.51.100.4",
		},
		{
			name:    "right-most untrusted hop behind a proxy",
			trusted: proxies,
			remote:  "10.0.0.7:5123",
			xff:     []string{"1.2.3.4, 203.0.113.9, 10.0.0.3"},
			want:    "203.0.113.9",
		},
		{
			name:    "repeated headers are read as one list",
			trusted: proxies,
			remote:  "10.0.0.7:5123",
			xff:     []string{"1.2.3.4", "203.0.113.9"},
			want:    "203.0.113.9",
		},
		{
			name:    "garbage hop falls back to the proxy",
			trusted: proxies,
			remote:  "10.0.0.7:5123",
			xff:     []string{"1.2.3.4, not-an-ip"},
			want:    "10.0.0.7",
		},
		{
			name:    "only proxies in the chain",
			trusted: proxies,
			remote:  "10.0.0.7:5123",
			xff:     []string{"10.0.0.2"},
			want:    "10.0.0.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}

			rl := NewRateLimiter(1, 1, tt.trusted...)
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(0.001, 2))
	body := `{"year":1990,"month":5,"day":12}`

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
		req.RemoteAddr = "198.51.100.4:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Len(t, s.analyst.Calls(), 2)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	assert.Equal(t, 1, rl.Cleanup(-time.Second))
	assert.True(t, rl.allow("a"))
}
