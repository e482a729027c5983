package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

type Handler struct {
	service *application.Service
	logger  *slog.Logger
}

func NewHandler(service *application.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// NewRouter wires the public surface. The webhook route sits outside the
// bearer-token group: it authenticates with the processor's HMAC signature
// instead.
func NewRouter(handler *Handler, verifier ports.TokenVerifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhooks/processor", handler.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(verifier))
			r.Post("/payments/intent", handler.createIntent)
			r.Get("/payments/{id}/status", handler.getPaymentStatus)
			r.Get("/invoices/{id}/payments", handler.listInvoicePayments)
			r.Get("/escrow/{id}", handler.getHold)
			r.Post("/escrow/{id}/work-completed", handler.markWorkCompleted)
			r.Post("/escrow/{id}/release", handler.releaseHold)
		})
	})
	return r
}
