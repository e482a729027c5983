package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vowsmarket/settlement-service/internal/contracts"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// HandleWebhook authenticates and dispatches one processor delivery.
// Deliveries are at-least-once and unordered, so every branch below is
// status-guarded: replaying an event never double-runs settlement or
// double-counts revenue.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := s.verifier.Verify(payload, signatureHeader, s.nowFn()); err != nil {
		return domain.ErrBadSignature
	}

	var event contracts.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: decode webhook envelope", domain.ErrInvalidInput)
	}
	if event.ID == "" || event.Type == "" {
		return fmt.Errorf("%w: webhook envelope missing id or type", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	if dup, err := s.eventDedup.IsDuplicate(ctx, event.ID, now); err != nil {
		return err
	} else if dup {
		s.logger.InfoContext(ctx, "duplicate webhook event skipped", "event_id", event.ID, "type", event.Type)
		return nil
	}

	var err error
	switch event.Type {
	case domain.WebhookPaymentSucceeded:
		err = s.handlePaymentSucceeded(ctx, event)
	case domain.WebhookPaymentFailed:
		err = s.handlePaymentFailed(ctx, event)
	case domain.WebhookPaymentCancelled:
		err = s.handlePaymentCancelled(ctx, event)
	case domain.WebhookChargeRefunded:
		err = s.handleChargeRefunded(ctx, event)
	default:
		s.logger.InfoContext(ctx, "unhandled webhook event kind", "event_id", event.ID, "type", event.Type)
	}
	if err != nil {
		return err
	}
	return s.eventDedup.MarkProcessed(ctx, event.ID, event.Type, now.Add(s.cfg.EventDedupTTL))
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event contracts.WebhookEvent) error {
	obj, err := decodePaymentObject(event)
	if err != nil {
		return err
	}
	payment, err := s.payments.GetByProcessorRef(ctx, obj.Ref)
	if err != nil {
		return fmt.Errorf("locate payment for %s: %w", obj.Ref, err)
	}
	if payment.Status == domain.PaymentStatusSucceeded ||
		payment.Status == domain.PaymentStatusPartiallyRefunded ||
		payment.Status == domain.PaymentStatusRefunded {
		// The status alone does not prove the settlement landed: the
		// transition commits before the ledger write, so a crash between the
		// two leaves a succeeded payment with no hold. The hold is the
		// idempotency anchor; re-run the settlement write when it is missing.
		if _, err := s.holds.GetByPaymentID(ctx, payment.PaymentID); err == nil {
			s.logger.InfoContext(ctx, "payment.succeeded replay ignored",
				"payment_id", payment.PaymentID, "status", string(payment.Status), "event_id", event.ID)
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger.WarnContext(ctx, "settlement missing for succeeded payment, recovering",
			"payment_id", payment.PaymentID, "event_id", event.ID)
		return s.writeSettlement(ctx, payment)
	}
	if !domain.CanTransition(payment.Status, domain.PaymentStatusSucceeded) {
		s.logger.WarnContext(ctx, "illegal payment transition rejected",
			"payment_id", payment.PaymentID, "from", string(payment.Status), "to", "succeeded", "event_id", event.ID)
		return nil
	}
	_, err = s.settlePayment(ctx, payment)
	return err
}

// settlePayment marks the payment succeeded and writes the settlement.
// Safe to call concurrently for the same payment: the transition is a
// compare-and-set and the settlement write is anchored on the unique
// hold-per-payment constraint.
func (s *Service) settlePayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	now := s.nowFn()
	processedAt := now
	updated, err := s.payments.Transition(ctx, ports.PaymentTransition{
		PaymentID:   payment.PaymentID,
		From:        []domain.PaymentStatus{domain.PaymentStatusPending},
		To:          domain.PaymentStatusSucceeded,
		ProcessedAt: &processedAt,
		At:          now,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Payment{}, err
		}
		// Lost a race with a concurrent delivery; re-read and make sure the
		// winner took the payment where we were headed.
		updated, err = s.payments.GetByID(ctx, payment.PaymentID)
		if err != nil {
			return domain.Payment{}, err
		}
		if updated.Status != domain.PaymentStatusSucceeded {
			s.logger.WarnContext(ctx, "succeeded transition lost to conflicting state",
				"payment_id", payment.PaymentID, "status", string(updated.Status))
			return updated, nil
		}
	}
	if err := s.writeSettlement(ctx, updated); err != nil {
		return domain.Payment{}, err
	}
	return updated, nil
}

// writeSettlement runs the settlement calculator for a succeeded payment:
// one platform entry, one vendor entry, one held escrow hold, plus the
// invoice paid-amount bump, written atomically by the ledger. A settlement
// already on record is a no-op, so a redelivered webhook can call this to
// recover from an earlier write that failed after the status transition.
func (s *Service) writeSettlement(ctx context.Context, payment domain.Payment) error {
	split, err := domain.SplitAmount(payment.Amount, s.cfg.FeeBasisPoints)
	if err != nil {
		return err
	}
	now := s.nowFn()
	hold := domain.EscrowHold{
		HoldID:    uuid.NewString(),
		PaymentID: payment.PaymentID,
		InvoiceID: payment.InvoiceID,
		VendorID:  payment.VendorID,
		Amount:    split.VendorAmount,
		Currency:  payment.Currency,
		Status:    domain.HoldStatusHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}
	platformFee := domain.RevenueEntry{
		EntryID:   uuid.NewString(),
		PaymentID: payment.PaymentID,
		InvoiceID: payment.InvoiceID,
		VendorID:  payment.VendorID,
		EntryType: domain.RevenueEntryPlatformFee,
		Amount:    split.PlatformFee,
		Currency:  payment.Currency,
		CreatedAt: now,
	}
	vendorDue := domain.RevenueEntry{
		EntryID:        uuid.NewString(),
		PaymentID:      payment.PaymentID,
		InvoiceID:      payment.InvoiceID,
		VendorID:       payment.VendorID,
		EntryType:      domain.RevenueEntryVendorDue,
		Amount:         split.VendorAmount,
		Currency:       payment.Currency,
		TransferStatus: domain.TransferStatusPending,
		CreatedAt:      now,
	}
	err = s.ledger.CreateSettlement(ctx, hold, platformFee, vendorDue)
	switch {
	case err == nil:
		s.enqueuePaymentSettled(ctx, payment, split, hold.HoldID)
	case errors.Is(err, domain.ErrConflict):
		// Settlement already exists for this payment (duplicate delivery).
	default:
		return fmt.Errorf("write settlement: %w", err)
	}

	s.dropCachedPayment(ctx, payment.PaymentID)
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, event contracts.WebhookEvent) error {
	obj, err := decodePaymentObject(event)
	if err != nil {
		return err
	}
	payment, err := s.payments.GetByProcessorRef(ctx, obj.Ref)
	if err != nil {
		return fmt.Errorf("locate payment for %s: %w", obj.Ref, err)
	}
	if payment.Status == domain.PaymentStatusFailed {
		return nil
	}
	if !domain.CanTransition(payment.Status, domain.PaymentStatusFailed) {
		s.logger.WarnContext(ctx, "illegal payment transition rejected",
			"payment_id", payment.PaymentID, "from", string(payment.Status), "to", "failed", "event_id", event.ID)
		return nil
	}
	reason := obj.FailureMessage
	if reason == "" {
		reason = obj.FailureCode
	}
	_, err = s.failPayment(ctx, payment, reason)
	return err
}

func (s *Service) failPayment(ctx context.Context, payment domain.Payment, reason string) (domain.Payment, error) {
	now := s.nowFn()
	updated, err := s.payments.Transition(ctx, ports.PaymentTransition{
		PaymentID:     payment.PaymentID,
		From:          []domain.PaymentStatus{domain.PaymentStatusPending},
		To:            domain.PaymentStatusFailed,
		FailureReason: reason,
		At:            now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.payments.GetByID(ctx, payment.PaymentID)
		}
		return domain.Payment{}, err
	}
	s.enqueuePaymentFailed(ctx, updated)
	s.dropCachedPayment(ctx, payment.PaymentID)
	return updated, nil
}

func (s *Service) handlePaymentCancelled(ctx context.Context, event contracts.WebhookEvent) error {
	obj, err := decodePaymentObject(event)
	if err != nil {
		return err
	}
	payment, err := s.payments.GetByProcessorRef(ctx, obj.Ref)
	if err != nil {
		return fmt.Errorf("locate payment for %s: %w", obj.Ref, err)
	}
	if payment.Status == domain.PaymentStatusCancelled {
		return nil
	}
	if !domain.CanTransition(payment.Status, domain.PaymentStatusCancelled) {
		s.logger.WarnContext(ctx, "illegal payment transition rejected",
			"payment_id", payment.PaymentID, "from", string(payment.Status), "to", "cancelled", "event_id", event.ID)
		return nil
	}
	_, err = s.cancelPayment(ctx, payment)
	return err
}

func (s *Service) cancelPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	now := s.nowFn()
	updated, err := s.payments.Transition(ctx, ports.PaymentTransition{
		PaymentID: payment.PaymentID,
		From:      []domain.PaymentStatus{domain.PaymentStatusPending},
		To:        domain.PaymentStatusCancelled,
		At:        now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.payments.GetByID(ctx, payment.PaymentID)
		}
		return domain.Payment{}, err
	}
	s.enqueuePaymentCancelled(ctx, updated)
	s.dropCachedPayment(ctx, payment.PaymentID)
	return updated, nil
}

// handleChargeRefunded applies processor-reported refunds. Refunds for
// payments this system does not know are logged and dropped: the processor
// account also carries charges from outside the marketplace. Released
// escrow holds are never clawed back here; over-disbursed payouts are an
// operational concern.
func (s *Service) handleChargeRefunded(ctx context.Context, event contracts.WebhookEvent) error {
	var obj contracts.ChargeObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("%w: decode charge object", domain.ErrInvalidInput)
	}
	payment, err := s.payments.GetByProcessorRef(ctx, obj.PaymentRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.InfoContext(ctx, "refund for unknown payment ignored",
				"processor_ref", obj.PaymentRef, "event_id", event.ID)
			return nil
		}
		return err
	}

	cumulative := obj.AmountRefunded
	if payment.RefundedAmount > cumulative {
		// Out-of-order partial refund deliveries must not shrink the total.
		cumulative = payment.RefundedAmount
	}
	if cumulative <= 0 {
		return nil
	}
	target := domain.PaymentStatusPartiallyRefunded
	if cumulative >= payment.Amount {
		target = domain.PaymentStatusRefunded
	}
	if payment.Status == target && payment.RefundedAmount == cumulative {
		return nil
	}
	if !domain.CanTransition(payment.Status, target) {
		s.logger.WarnContext(ctx, "illegal payment transition rejected",
			"payment_id", payment.PaymentID, "from", string(payment.Status), "to", string(target), "event_id", event.ID)
		return nil
	}

	now := s.nowFn()
	updated, err := s.payments.Transition(ctx, ports.PaymentTransition{
		PaymentID:      payment.PaymentID,
		From:           []domain.PaymentStatus{domain.PaymentStatusSucceeded, domain.PaymentStatusPartiallyRefunded},
		To:             target,
		RefundedAmount: &cumulative,
		At:             now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.WarnContext(ctx, "refund transition lost race",
				"payment_id", payment.PaymentID, "event_id", event.ID)
			return nil
		}
		return err
	}
	s.enqueuePaymentRefunded(ctx, updated)
	s.dropCachedPayment(ctx, payment.PaymentID)
	return nil
}

func decodePaymentObject(event contracts.WebhookEvent) (contracts.PaymentObject, error) {
	var obj contracts.PaymentObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return contracts.PaymentObject{}, fmt.Errorf("%w: decode payment object", domain.ErrInvalidInput)
	}
	if obj.Ref == "" {
		return contracts.PaymentObject{}, fmt.Errorf("%w: payment object missing reference", domain.ErrInvalidInput)
	}
	return obj, nil
}
