package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type escrowHoldRepository struct {
	db *gorm.DB
}

func (r *escrowHoldRepository) GetByID(ctx context.Context, holdID string) (domain.EscrowHold, error) {
	var rec escrowHoldModel
	if err := r.db.WithContext(ctx).Where("hold_id = ?", holdID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.EscrowHold{}, domain.ErrNotFound
		}
		return domain.EscrowHold{}, err
	}
	return holdFromModel(rec), nil
}

func (r *escrowHoldRepository) GetByPaymentID(ctx context.Context, paymentID string) (domain.EscrowHold, error) {
	var rec escrowHoldModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.EscrowHold{}, domain.ErrNotFound
		}
		return domain.EscrowHold{}, err
	}
	return holdFromModel(rec), nil
}

func (r *escrowHoldRepository) MarkWorkCompleted(ctx context.Context, holdID string, at time.Time) (domain.EscrowHold, error) {
	res := r.db.WithContext(ctx).Model(&escrowHoldModel{}).
		Where("hold_id = ? AND work_completed = FALSE", holdID).
		Updates(map[string]any{
			"work_completed": true,
			"updated_at":     at,
		})
	if res.Error != nil {
		return domain.EscrowHold{}, res.Error
	}
	// Zero rows means either already completed or missing; GetByID settles it.
	return r.GetByID(ctx, holdID)
}

// Release is the one-way held→released compare-and-set: the update lands
// only while status is still held.
func (r *escrowHoldRepository) Release(ctx context.Context, params ports.ReleaseParams) (domain.EscrowHold, error) {
	res := r.db.WithContext(ctx).Model(&escrowHoldModel{}).
		Where("hold_id = ? AND status = ?", params.HoldID, string(domain.HoldStatusHeld)).
		Updates(map[string]any{
			"status":         string(domain.HoldStatusReleased),
			"release_method": string(params.Method),
			"release_reason": params.Reason,
			"released_by":    params.ReleasedBy,
			"released_at":    params.At,
			"updated_at":     params.At,
		})
	if res.Error != nil {
		return domain.EscrowHold{}, res.Error
	}
	if res.RowsAffected == 0 {
		hold, err := r.GetByID(ctx, params.HoldID)
		if err != nil {
			return domain.EscrowHold{}, err
		}
		if hold.Status == domain.HoldStatusReleased {
			return domain.EscrowHold{}, domain.ErrAlreadyReleased
		}
		return domain.EscrowHold{}, domain.ErrConflict
	}
	return r.GetByID(ctx, params.HoldID)
}

var _ ports.EscrowHoldRepository = (*escrowHoldRepository)(nil)

type ledgerRepository struct {
	db *gorm.DB
}

// CreateSettlement writes the hold, both revenue entries and the invoice
// paid-amount increment in one transaction. The unique index on
// escrow_holds.payment_id makes a second settlement of the same payment
// fail the whole transaction with domain.ErrConflict, which also keeps the
// invoice bookkeeping exactly-once.
func (r *ledgerRepository) CreateSettlement(ctx context.Context, hold domain.EscrowHold, platformFee, vendorDue domain.RevenueEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holdRec := holdToModel(hold)
		if err := tx.Create(&holdRec).Error; err != nil {
			return err
		}
		feeRec := entryToModel(platformFee)
		if err := tx.Create(&feeRec).Error; err != nil {
			return err
		}
		dueRec := entryToModel(vendorDue)
		if err := tx.Create(&dueRec).Error; err != nil {
			return err
		}
		res := tx.Model(&invoiceModel{}).
			Where("invoice_id = ?", hold.InvoiceID).
			Updates(map[string]any{
				"paid_amount": gorm.Expr("paid_amount + ?", platformFee.Amount+vendorDue.Amount),
				"updated_at":  hold.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ledgerRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]domain.RevenueEntry, error) {
	var rows []revenueEntryModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("entry_type asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RevenueEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromModel(row))
	}
	return out, nil
}

func (r *ledgerRepository) MarkVendorEntryPaid(ctx context.Context, paymentID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&revenueEntryModel{}).
		Where("payment_id = ? AND entry_type = ? AND transfer_status = ?",
			paymentID, string(domain.RevenueEntryVendorDue), string(domain.TransferStatusPending)).
		Updates(map[string]any{
			"transfer_status": string(domain.TransferStatusPaid),
			"transferred_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.LedgerRepository = (*ledgerRepository)(nil)
