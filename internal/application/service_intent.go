package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vowsmarket/settlement-service/internal/contracts"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// CreateIntent validates the invoice, opens a payment attempt with the
// processor, and persists a pending Payment carrying the processor's
// reference. The Payment row is written only after the processor call
// returns, so a processor timeout leaves no ambiguous state behind.
//
// Retried calls without an Idempotency-Key deliberately create fresh
// Payment rows; with a key, a replay of the same request returns the
// original response.
func (s *Service) CreateIntent(ctx context.Context, actor Actor, input CreateIntentInput) (contracts.CreateIntentResponse, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return contracts.CreateIntentResponse{}, domain.ErrUnauthorized
	}
	if input.Currency == "" {
		input.Currency = s.cfg.DefaultCurrency
	}
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(input.Method)))
	if method == "" {
		method = domain.PaymentMethodCard
	}
	if err := domain.ValidateIntentInput(input.InvoiceID, input.InquiryID, input.Amount, method); err != nil {
		return contracts.CreateIntentResponse{}, err
	}

	invoice, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return contracts.CreateIntentResponse{}, err
	}
	if invoice.Closed() {
		return contracts.CreateIntentResponse{}, domain.ErrInvoiceClosed
	}
	if input.Amount > invoice.RemainingBalance() {
		return contracts.CreateIntentResponse{}, domain.ErrInvalidAmount
	}

	requestHash := hashJSON(input)
	if actor.IdempotencyKey != "" {
		rec, err := s.idempotency.Get(ctx, actor.IdempotencyKey, s.nowFn())
		if err != nil {
			return contracts.CreateIntentResponse{}, err
		}
		switch {
		case rec == nil:
			if err := s.idempotency.Reserve(ctx, actor.IdempotencyKey, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL)); err != nil {
				return contracts.CreateIntentResponse{}, err
			}
		case rec.RequestHash != requestHash:
			return contracts.CreateIntentResponse{}, domain.ErrIdempotencyConflict
		case len(rec.ResponseBody) > 0:
			var out contracts.CreateIntentResponse
			if err := json.Unmarshal(rec.ResponseBody, &out); err == nil {
				return out, nil
			}
		}
		// A matching reservation without a recorded response means an earlier
		// attempt died before the processor call completed; retry under the
		// same reservation.
	}

	intentCtx, cancel := context.WithTimeout(ctx, s.cfg.IntentTimeout)
	defer cancel()
	intent, err := s.processor.CreateIntent(intentCtx, ports.IntentRequest{
		InvoiceID:      input.InvoiceID,
		InquiryID:      input.InquiryID,
		Amount:         input.Amount,
		Currency:       input.Currency,
		PayerID:        actor.SubjectID,
		IdempotencyKey: actor.IdempotencyKey,
	})
	if err != nil {
		return contracts.CreateIntentResponse{}, fmt.Errorf("%w: create intent: %v", domain.ErrProcessorUnavailable, err)
	}

	now := s.nowFn()
	payment := domain.Payment{
		PaymentID:    uuid.NewString(),
		InvoiceID:    invoice.InvoiceID,
		InquiryID:    input.InquiryID,
		VendorID:     invoice.VendorID,
		PayerID:      actor.SubjectID,
		Amount:       input.Amount,
		Currency:     input.Currency,
		Method:       method,
		Status:       domain.PaymentStatusPending,
		ProcessorRef: intent.ProviderRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return contracts.CreateIntentResponse{}, err
	}

	out := contracts.CreateIntentResponse{
		PaymentID:    payment.PaymentID,
		ClientSecret: intent.ClientSecret,
		Amount:       payment.Amount,
		Currency:     payment.Currency,
	}
	if actor.IdempotencyKey != "" {
		body, _ := json.Marshal(out)
		_ = s.idempotency.Complete(ctx, actor.IdempotencyKey, 201, body, s.nowFn())
	}
	return out, nil
}

// GetPaymentStatus returns the normalized payment view, optionally
// reconciling a still-pending payment against the processor.
func (s *Service) GetPaymentStatus(ctx context.Context, paymentID string) (domain.Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return domain.Payment{}, domain.ErrInvalidInput
	}
	if cached, ok := s.cachedPayment(ctx, paymentID); ok {
		return cached, nil
	}
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment.Status == domain.PaymentStatusPending && s.cfg.ReconcilePending {
		payment = s.reconcilePending(ctx, payment)
	}
	s.cachePayment(ctx, payment)
	return payment, nil
}

// ListInvoicePayments is a read surface for operator tooling.
func (s *Service) ListInvoicePayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoiceID(ctx, invoiceID)
}

// reconcilePending asks the processor for the intent's current state and
// applies it through the same guarded path webhooks use. Processor errors
// are swallowed here: the stored view is still a correct answer.
func (s *Service) reconcilePending(ctx context.Context, payment domain.Payment) domain.Payment {
	intentCtx, cancel := context.WithTimeout(ctx, s.cfg.IntentTimeout)
	defer cancel()
	intent, err := s.processor.GetIntent(intentCtx, payment.ProcessorRef)
	if err != nil {
		s.logger.WarnContext(ctx, "pending reconciliation skipped",
			"payment_id", payment.PaymentID, "error", err)
		return payment
	}
	var applied domain.Payment
	switch intent.Status {
	case ports.IntentStatusSucceeded:
		applied, err = s.settlePayment(ctx, payment)
	case ports.IntentStatusFailed:
		applied, err = s.failPayment(ctx, payment, "reported failed during reconciliation")
	case ports.IntentStatusCancelled:
		applied, err = s.cancelPayment(ctx, payment)
	default:
		return payment
	}
	if err != nil {
		s.logger.WarnContext(ctx, "pending reconciliation not applied",
			"payment_id", payment.PaymentID, "intent_status", intent.Status, "error", err)
		return payment
	}
	return applied
}

func (s *Service) cachedPayment(ctx context.Context, paymentID string) (domain.Payment, bool) {
	if s.cache == nil {
		return domain.Payment{}, false
	}
	raw, err := s.cache.Get(ctx, paymentViewKey(paymentID))
	if err != nil || raw == "" {
		return domain.Payment{}, false
	}
	var payment domain.Payment
	if err := json.Unmarshal([]byte(raw), &payment); err != nil {
		return domain.Payment{}, false
	}
	return payment, true
}

func (s *Service) cachePayment(ctx context.Context, payment domain.Payment) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(payment)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, paymentViewKey(payment.PaymentID), string(raw), s.cfg.StatusCacheTTL)
}

func (s *Service) dropCachedPayment(ctx context.Context, paymentID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, paymentViewKey(paymentID))
}

func paymentViewKey(paymentID string) string {
	return "payment:view:" + paymentID
}

func hashJSON(value any) string {
	blob, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
