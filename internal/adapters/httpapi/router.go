package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the API routes. limiter and metrics may be nil.
func NewRouter(h *Handler, limiter *RateLimiter, metrics *Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging, CORS)
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
		if limiter != nil {
			limiter.metrics = metrics
		}
	}

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	var analyze http.Handler = http.HandlerFunc(h.Analyze)
	if limiter != nil {
		analyze = limiter.Middleware(analyze)
	}
	api.Handle("/analyze", analyze).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/paypal/create-order", h.CreateOrder).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/paypal/capture-order", h.CaptureOrder).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/paypal/validate-merchant", h.ValidateMerchant).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/send-email", h.SendEmail).Methods(http.MethodPost, http.MethodOptions)

	return r
}
