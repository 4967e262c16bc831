// Package httpapi exposes the reading, checkout and delivery operations as
// JSON over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
)

// Handler serves the public API
type Handler struct {
	reader   *ports.Reader
	checkout *ports.Checkout
	merchant ports.MerchantValidator
	courier  *ports.Courier
}

// NewHandler creates a new HTTP handler
func NewHandler(reader *ports.Reader, checkout *ports.Checkout, merchant ports.MerchantValidator, courier *ports.Courier) *Handler {
	return &Handler{
		reader:   reader,
		checkout: checkout,
		merchant: merchant,
		courier:  courier,
	}
}

type analyzeRequest struct {
	domain.BirthInput
	Language string `json:"language,omitempty"`
}

type analyzeResponse struct {
	Chart    *domain.Chart `json:"chart"`
	Reading  string        `json:"reading"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
}

// Analyze computes the chart and asks the model for a reading
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reading, err := h.reader.Read(r.Context(), req.BirthInput, req.Language)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Chart:    reading.Chart,
		Reading:  reading.Text,
		Provider: reading.Provider,
		Model:    reading.Model,
	})
}

type createOrderRequest struct {
	Email  string `json:"email,omitempty"`
	Method string `json:"method,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Payer    *payer `json:"payer,omitempty"`
}

type payer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CreateOrder opens a payment order for the reading
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}

	po, err := h.checkout.Create(r.Context(), method, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	product := h.checkout.Product()
	writeJSON(w, http.StatusOK, orderResponse{
		ID:       po.ID,
		Status:   po.Status,
		Amount:   product.Price.StringFixed(2),
		Currency: product.Currency,
	})
}

type captureOrderRequest struct {
	OrderID string `json:"orderID"`
}

// CaptureOrder captures an approved payment order
func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	var req captureOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	po, err := h.checkout.Capture(r.Context(), req.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := orderResponse{ID: po.ID, Status: po.Status}
	if po.PayerEmail != "" || po.PayerName != "" {
		resp.Payer = &payer{Email: po.PayerEmail, Name: po.PayerName}
	}
	writeJSON(w, http.StatusOK, resp)
}

type validateMerchantRequest struct {
	ValidationURL string `json:"validationURL"`
}

// ValidateMerchant returns an Apple Pay merchant session
func (h *Handler) ValidateMerchant(w http.ResponseWriter, r *http.Request) {
	var req validateMerchantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ValidationURL == "" {
		writeError(w, r, domain.ErrInvalidValidationURL)
		return
	}

	session, err := h.merchant.ValidateMerchant(r.Context(), req.ValidationURL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, json.RawMessage(session))
}

type sendEmailRequest struct {
	Email   string            `json:"email"`
	Name    string            `json:"name,omitempty"`
	Reading string            `json:"reading"`
	Birth   domain.BirthInput `json:"birth"`
	OrderID string            `json:"orderID,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// SendEmail renders the reading PDF and mails it to the customer
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.courier.Deliver(r.Context(), ports.DeliveryRequest{
		Email:   req.Email,
		Name:    req.Name,
		Birth:   req.Birth,
		Reading: req.Reading,
		OrderID: req.OrderID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendEmailResponse{ID: id})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
