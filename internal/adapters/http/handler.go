package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/contracts"
)

// maxWebhookBody caps processor deliveries; real events are a few KB.
const maxWebhookBody = 1 << 20

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	out, err := h.service.CreateIntent(r.Context(), actor, application.CreateIntentInput{
		InvoiceID: strings.TrimSpace(req.InvoiceID),
		InquiryID: strings.TrimSpace(req.InquiryID),
		Amount:    req.Amount,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		Method:    req.Method,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", out)
}

func (h *Handler) getPaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	payment, err := h.service.GetPaymentStatus(r.Context(), paymentID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", payment)
}

func (h *Handler) listInvoicePayments(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	payments, err := h.service.ListInvoicePayments(r.Context(), invoiceID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items": payments,
	})
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "unreadable body", requestIDFromContext(r.Context()))
		return
	}
	signature := r.Header.Get("Processor-Signature")
	if err := h.service.HandleWebhook(r.Context(), payload, signature); err != nil {
		status, code := mapDomainError(err)
		// The processor only needs receipt or failure; error detail stays in
		// the log.
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		} else {
			h.logger.WarnContext(r.Context(), "webhook rejected", "code", code, "error", err)
		}
		writeError(w, status, code, "webhook not accepted", requestIDFromContext(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, contracts.WebhookAck{Received: true})
}

func (h *Handler) getHold(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	hold, err := h.service.GetHold(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", hold)
}

func (h *Handler) markWorkCompleted(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	hold, err := h.service.MarkWorkCompleted(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", hold)
}

func (h *Handler) releaseHold(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	result, err := h.service.ReleaseHold(r.Context(), actor, application.ReleaseInput{
		HoldID: chi.URLParam(r, "id"),
		Method: strings.ToLower(strings.TrimSpace(req.ReleaseMethod)),
		Reason: strings.TrimSpace(req.ReleaseReason),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"hold":          result.Hold,
		"transfer":      result.Transfer,
		"transferState": string(result.Outcome),
		"transferError": result.TransferError,
	})
}
