package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// ReleaseResult reports what a release did. The hold transition and the
// external payout are deliberately decoupled: Hold is always the released
// hold, while Transfer is set only when Outcome is paid.
type ReleaseResult struct {
	Hold          domain.EscrowHold
	Transfer      *domain.Transfer
	Outcome       TransferOutcome
	TransferError string
}

func (s *Service) GetHold(ctx context.Context, actor Actor, holdID string) (domain.EscrowHold, error) {
	if actor.Role != RoleOperator && actor.Role != RoleSystem {
		return domain.EscrowHold{}, domain.ErrForbidden
	}
	if holdID == "" {
		return domain.EscrowHold{}, fmt.Errorf("%w: hold id is required", domain.ErrInvalidInput)
	}
	return s.holds.GetByID(ctx, holdID)
}

// MarkWorkCompleted flips the hold's work_completed flag. The flag is
// one-way and the call is idempotent, so booking systems can re-send
// completion signals freely.
func (s *Service) MarkWorkCompleted(ctx context.Context, actor Actor, holdID string) (domain.EscrowHold, error) {
	if actor.Role != RoleOperator && actor.Role != RoleSystem {
		return domain.EscrowHold{}, domain.ErrForbidden
	}
	if holdID == "" {
		return domain.EscrowHold{}, fmt.Errorf("%w: hold id is required", domain.ErrInvalidInput)
	}
	hold, err := s.holds.MarkWorkCompleted(ctx, holdID, s.nowFn())
	if err != nil {
		return domain.EscrowHold{}, err
	}
	s.logger.InfoContext(ctx, "escrow hold marked work completed",
		"hold_id", hold.HoldID, "payment_id", hold.PaymentID, "by", actor.SubjectID)
	return hold, nil
}

// ReleaseHold performs the one-way held→released transition and then
// attempts the vendor payout. Funds-correctness lives entirely in the
// release step; the payout is best-effort and its failure never rolls the
// release back. There is no automatic retry for a failed payout.
func (s *Service) ReleaseHold(ctx context.Context, actor Actor, input ReleaseInput) (ReleaseResult, error) {
	method := domain.ReleaseMethod(input.Method)
	if !domain.ValidReleaseMethod(method) {
		return ReleaseResult{}, fmt.Errorf("%w: unknown release method %q", domain.ErrInvalidInput, input.Method)
	}
	if method == domain.ReleaseMethodManual {
		if actor.Role != RoleOperator {
			return ReleaseResult{}, domain.ErrForbidden
		}
	} else if actor.Role != RoleOperator && actor.Role != RoleSystem {
		return ReleaseResult{}, domain.ErrForbidden
	}
	if input.HoldID == "" {
		return ReleaseResult{}, fmt.Errorf("%w: hold id is required", domain.ErrInvalidInput)
	}

	hold, err := s.holds.GetByID(ctx, input.HoldID)
	if err != nil {
		return ReleaseResult{}, err
	}
	if hold.Status == domain.HoldStatusReleased {
		return ReleaseResult{}, domain.ErrAlreadyReleased
	}
	if !hold.WorkCompleted {
		return ReleaseResult{}, domain.ErrWorkNotCompleted
	}

	now := s.nowFn()
	released, err := s.holds.Release(ctx, ports.ReleaseParams{
		HoldID:     input.HoldID,
		Method:     method,
		Reason:     input.Reason,
		ReleasedBy: actor.SubjectID,
		At:         now,
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	s.enqueueEscrowReleased(ctx, released)
	s.logger.InfoContext(ctx, "escrow hold released",
		"hold_id", released.HoldID, "payment_id", released.PaymentID,
		"method", string(method), "by", actor.SubjectID)

	result := ReleaseResult{Hold: released}
	s.runTransfer(ctx, released, &result)
	return result, nil
}

func (s *Service) runTransfer(ctx context.Context, hold domain.EscrowHold, result *ReleaseResult) {
	vendor, err := s.vendors.GetByID(ctx, hold.VendorID)
	if err != nil {
		result.Outcome = TransferOutcomeFailed
		result.TransferError = fmt.Sprintf("load vendor: %v", err)
		s.logger.WarnContext(ctx, "transfer aborted, vendor lookup failed",
			"hold_id", hold.HoldID, "vendor_id", hold.VendorID, "error", err)
		return
	}
	if !vendor.TransferCapable() {
		result.Outcome = TransferOutcomeSkipped
		s.logger.InfoContext(ctx, "transfer skipped, vendor not payout capable",
			"hold_id", hold.HoldID, "vendor_id", hold.VendorID)
		return
	}

	payment, err := s.payments.GetByID(ctx, hold.PaymentID)
	if err != nil {
		result.Outcome = TransferOutcomeFailed
		result.TransferError = fmt.Sprintf("load payment: %v", err)
		s.logger.WarnContext(ctx, "transfer aborted, payment lookup failed",
			"hold_id", hold.HoldID, "payment_id", hold.PaymentID, "error", err)
		return
	}

	tctx, cancel := context.WithTimeout(ctx, s.cfg.TransferTimeout)
	defer cancel()
	res, err := s.processor.CreateTransfer(tctx, ports.TransferRequest{
		Destination: vendor.PayoutDestination,
		Amount:      hold.Amount,
		Currency:    hold.Currency,
		SourceRef:   payment.ProcessorRef,
		HoldID:      hold.HoldID,
		PaymentID:   hold.PaymentID,
	})
	if err != nil {
		result.Outcome = TransferOutcomeFailed
		result.TransferError = fmt.Sprintf("%v: create transfer: %v", domain.ErrProcessorUnavailable, err)
		s.logger.WarnContext(ctx, "transfer failed, release stands",
			"hold_id", hold.HoldID, "vendor_id", hold.VendorID, "error", err)
		return
	}

	now := s.nowFn()
	transfer := domain.Transfer{
		TransferID:          uuid.NewString(),
		HoldID:              hold.HoldID,
		PaymentID:           hold.PaymentID,
		VendorID:            hold.VendorID,
		Amount:              hold.Amount,
		Currency:            hold.Currency,
		Destination:         vendor.PayoutDestination,
		ProcessorTransferID: res.TransferID,
		CreatedAt:           now,
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		// The processor accepted the payout; recording it must not vanish
		// silently.
		result.Outcome = TransferOutcomeFailed
		result.TransferError = fmt.Sprintf("record transfer %s: %v", res.TransferID, err)
		s.logger.ErrorContext(ctx, "transfer executed but not recorded",
			"hold_id", hold.HoldID, "processor_transfer_id", res.TransferID, "error", err)
		return
	}
	if err := s.ledger.MarkVendorEntryPaid(ctx, hold.PaymentID, now); err != nil {
		s.logger.WarnContext(ctx, "vendor ledger entry not marked paid",
			"payment_id", hold.PaymentID, "error", err)
	}
	s.enqueueTransferPaid(ctx, transfer)

	result.Outcome = TransferOutcomePaid
	result.Transfer = &transfer
	s.logger.InfoContext(ctx, "vendor transfer paid",
		"hold_id", hold.HoldID, "vendor_id", hold.VendorID,
		"amount", hold.Amount, "processor_transfer_id", res.TransferID)
}
