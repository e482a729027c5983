package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vowsmarket/settlement-service/internal/adapters/memory"
	"github.com/vowsmarket/settlement-service/internal/adapters/processor"
	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/contracts"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

const testSecret = "whsec_router_test"

// staticVerifier maps literal tokens to claims.
type staticVerifier map[string]ports.OperatorClaims

func (v staticVerifier) VerifyToken(raw string) (ports.OperatorClaims, error) {
	claims, ok := v[raw]
	if !ok {
		return ports.OperatorClaims{}, errors.New("unknown token")
	}
	return claims, nil
}

func newTestRouter(t *testing.T) (nethttp.Handler, *memory.Store) {
	t.Helper()
	return buildRouter(t, nil)
}

func buildRouter(t *testing.T, dedup ports.EventDedupRepository) (nethttp.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	verifier, err := processor.NewSignatureVerifier(testSecret, 5*time.Minute)
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}
	if dedup == nil {
		dedup = store.EventDedup()
	}
	svc := application.NewService(application.Dependencies{
		Payments:    store.Payments(),
		Holds:       store.Holds(),
		Ledger:      store.Ledger(),
		Transfers:   store.Transfers(),
		Invoices:    store.Invoices(),
		Vendors:     store.Vendors(),
		Outbox:      store.Outbox(),
		EventDedup:  dedup,
		Idempotency: store.Idempotency(),
		Processor:   processor.NewFake(),
		Verifier:    verifier,
	})
	store.PutInvoice(domain.Invoice{
		InvoiceID:   "inv-1",
		InquiryID:   "inq-1",
		VendorID:    "ven-1",
		TotalAmount: 20000,
		Currency:    "USD",
		Status:      domain.InvoiceStatusOpen,
	})
	tokens := staticVerifier{
		"user-token": {SubjectID: "usr-1", Role: "user"},
		"ops-token":  {SubjectID: "ops-1", Role: "operator"},
	}
	return NewRouter(NewHandler(svc, slog.Default()), tokens, slog.Default()), store
}

func TestRouterRequiresBearerToken(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/payments/intent", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Status != "error" || body.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestRouterCreateIntent(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	payload := []byte(`{"invoiceId":"inv-1","inquiryId":"inq-1","amount":10000,"method":"card"}`)
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/payments/intent", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Status string                         `json:"status"`
		Data   contracts.CreateIntentResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("envelope status = %q", envelope.Status)
	}
	if envelope.Data.PaymentID == "" || envelope.Data.ClientSecret == "" {
		t.Fatalf("intent response missing ids: %+v", envelope.Data)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header on response")
	}
}

func TestRouterCreateIntentClosedInvoice(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t)
	store.PutInvoice(domain.Invoice{
		InvoiceID:   "inv-done",
		InquiryID:   "inq-9",
		VendorID:    "ven-1",
		TotalAmount: 5000,
		PaidAmount:  5000,
		Currency:    "USD",
		Status:      domain.InvoiceStatusPaid,
	})
	payload := []byte(`{"invoiceId":"inv-done","inquiryId":"inq-9","amount":1000}`)
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/payments/intent", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouterWebhookAck(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	payload := []byte(fmt.Sprintf(`{"id":"evt-1","type":"charge.refunded","created":%d,"data":{"object":{"id":"ch_x","payment_intent":"pi_unknown","amount":100,"amount_refunded":100}}}`, time.Now().Unix()))
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/webhooks/processor", bytes.NewReader(payload))
	req.Header.Set("Processor-Signature", processor.Sign(testSecret, payload, time.Now()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var ack contracts.WebhookAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Received {
		t.Fatalf("ack.received = false, want true")
	}
}

func TestRouterWebhookBadSignature(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	payload := []byte(`{"id":"evt-2","type":"payment.succeeded","data":{"object":{"id":"pi_x"}}}`)
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/webhooks/processor", bytes.NewReader(payload))
	req.Header.Set("Processor-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
	}
	var body contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "bad_signature" {
		t.Fatalf("error code = %q, want bad_signature", body.Error.Code)
	}
	if body.Error.Message != "webhook not accepted" {
		t.Fatalf("error message = %q, want the generic webhook message", body.Error.Message)
	}
}

// failingDedup simulates the dedup store being unreachable.
type failingDedup struct{}

func (failingDedup) IsDuplicate(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("dedup store unreachable")
}

func (failingDedup) MarkProcessed(context.Context, string, string, time.Time) error {
	return nil
}

func TestRouterWebhookErrorHidesInternalDetail(t *testing.T) {
	t.Parallel()

	router, _ := buildRouter(t, failingDedup{})
	payload := []byte(`{"id":"evt-3","type":"payment.succeeded","data":{"object":{"id":"pi_x"}}}`)
	req := httptest.NewRequest(nethttp.MethodPost, "/v1/webhooks/processor", bytes.NewReader(payload))
	req.Header.Set("Processor-Signature", processor.Sign(testSecret, payload, time.Now()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusInternalServerError {
		t.Fatalf("status = %d, want 500, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "unreachable") {
		t.Fatalf("response leaks internal error detail: %s", rec.Body.String())
	}
	var body contracts.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "internal_error" || body.Error.Message != "webhook not accepted" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestRouterPaymentStatusNotFound(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	req := httptest.NewRequest(nethttp.MethodGet, "/v1/payments/missing/status", nil)
	req.Header.Set("Authorization", "Bearer ops-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
