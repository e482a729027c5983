package postgres

import (
	"context"
	"errors"

	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func (r *paymentRepository) Create(ctx context.Context, payment domain.Payment) error {
	rec := paymentToModel(payment)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, paymentID string) (domain.Payment, error) {
	var rec paymentModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, err
	}
	return paymentFromModel(rec), nil
}

func (r *paymentRepository) GetByProcessorRef(ctx context.Context, processorRef string) (domain.Payment, error) {
	var rec paymentModel
	if err := r.db.WithContext(ctx).Where("processor_ref = ?", processorRef).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, err
	}
	return paymentFromModel(rec), nil
}

func (r *paymentRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	var rows []paymentModel
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, paymentFromModel(row))
	}
	return out, nil
}

// Transition is a guarded update: the row changes only while its status is
// one of t.From, so concurrent webhook deliveries cannot double-apply.
func (r *paymentRepository) Transition(ctx context.Context, t ports.PaymentTransition) (domain.Payment, error) {
	from := make([]string, 0, len(t.From))
	for _, s := range t.From {
		from = append(from, string(s))
	}
	updates := map[string]any{
		"status":     string(t.To),
		"updated_at": t.At,
	}
	if t.FailureReason != "" {
		updates["failure_reason"] = t.FailureReason
	}
	if t.RefundedAmount != nil {
		updates["refunded_amount"] = *t.RefundedAmount
	}
	if t.ProcessedAt != nil {
		updates["processed_at"] = *t.ProcessedAt
	}
	res := r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("payment_id = ? AND status IN ?", t.PaymentID, from).
		Updates(updates)
	if res.Error != nil {
		return domain.Payment{}, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&paymentModel{}).
			Where("payment_id = ?", t.PaymentID).Count(&count).Error; err != nil {
			return domain.Payment{}, err
		}
		if count == 0 {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, domain.ErrConflict
	}
	return r.GetByID(ctx, t.PaymentID)
}

var _ ports.PaymentRepository = (*paymentRepository)(nil)
