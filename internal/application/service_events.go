package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vowsmarket/settlement-service/internal/contracts"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

const eventSchemaVersion = "1.0"

// enqueueEvent writes a fully formed envelope to the transactional outbox.
// Publishing to the broker happens asynchronously in the outbox worker, so
// an unavailable broker never blocks a settlement write. Enqueue failures
// are logged, not propagated: the state change already happened and events
// are a downstream convenience.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, traceID string, payload any) {
	if s.outbox == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "event payload not serializable", "type", eventType, "error", err)
		return
	}
	now := s.nowFn()
	envelope := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    now,
		PartitionKey:  partitionKey,
		SourceService: s.cfg.ServiceName,
		TraceID:       traceID,
		SchemaVersion: eventSchemaVersion,
		Data:          data,
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		s.logger.ErrorContext(ctx, "event envelope not serializable", "type", eventType, "error", err)
		return
	}
	err = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      envelope.EventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      blob,
		TraceID:      traceID,
		OccurredAt:   now,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "outbox enqueue failed", "type", eventType, "error", err)
	}
}

func (s *Service) enqueuePaymentSettled(ctx context.Context, payment domain.Payment, split domain.Settlement, holdID string) {
	settledAt := payment.UpdatedAt
	if payment.ProcessedAt != nil {
		settledAt = *payment.ProcessedAt
	}
	s.enqueueEvent(ctx, domain.EventPaymentSettled, payment.InvoiceID, requestTrace(ctx), contracts.PaymentSettledPayload{
		PaymentID:    payment.PaymentID,
		InvoiceID:    payment.InvoiceID,
		VendorID:     payment.VendorID,
		Amount:       payment.Amount,
		PlatformFee:  split.PlatformFee,
		VendorAmount: split.VendorAmount,
		Currency:     payment.Currency,
		HoldID:       holdID,
		SettledAt:    settledAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueuePaymentFailed(ctx context.Context, payment domain.Payment) {
	s.enqueueEvent(ctx, domain.EventPaymentFailed, payment.InvoiceID, requestTrace(ctx), contracts.PaymentFailedPayload{
		PaymentID:     payment.PaymentID,
		InvoiceID:     payment.InvoiceID,
		FailureReason: payment.FailureReason,
		FailedAt:      payment.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueuePaymentCancelled(ctx context.Context, payment domain.Payment) {
	s.enqueueEvent(ctx, domain.EventPaymentCancelled, payment.InvoiceID, requestTrace(ctx), contracts.PaymentFailedPayload{
		PaymentID: payment.PaymentID,
		InvoiceID: payment.InvoiceID,
		FailedAt:  payment.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueuePaymentRefunded(ctx context.Context, payment domain.Payment) {
	eventType := domain.EventPaymentPartiallyRefunded
	if payment.Status == domain.PaymentStatusRefunded {
		eventType = domain.EventPaymentRefunded
	}
	s.enqueueEvent(ctx, eventType, payment.InvoiceID, requestTrace(ctx), contracts.PaymentRefundedPayload{
		PaymentID:      payment.PaymentID,
		InvoiceID:      payment.InvoiceID,
		Amount:         payment.Amount,
		RefundedAmount: payment.RefundedAmount,
		Status:         string(payment.Status),
		RefundedAt:     payment.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueEscrowReleased(ctx context.Context, hold domain.EscrowHold) {
	releasedAt := hold.UpdatedAt
	if hold.ReleasedAt != nil {
		releasedAt = *hold.ReleasedAt
	}
	s.enqueueEvent(ctx, domain.EventEscrowReleased, hold.VendorID, requestTrace(ctx), contracts.EscrowReleasedPayload{
		HoldID:        hold.HoldID,
		PaymentID:     hold.PaymentID,
		VendorID:      hold.VendorID,
		Amount:        hold.Amount,
		ReleaseMethod: string(hold.ReleaseMethod),
		ReleaseReason: hold.ReleaseReason,
		ReleasedBy:    hold.ReleasedBy,
		ReleasedAt:    releasedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueTransferPaid(ctx context.Context, transfer domain.Transfer) {
	s.enqueueEvent(ctx, domain.EventTransferPaid, transfer.VendorID, requestTrace(ctx), contracts.TransferPaidPayload{
		TransferID:          transfer.TransferID,
		HoldID:              transfer.HoldID,
		PaymentID:           transfer.PaymentID,
		VendorID:            transfer.VendorID,
		Amount:              transfer.Amount,
		Currency:            transfer.Currency,
		ProcessorTransferID: transfer.ProcessorTransferID,
		PaidAt:              transfer.CreatedAt.Format(time.RFC3339Nano),
	})
}
