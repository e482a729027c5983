package postgres

import (
	"context"
	"errors"

	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

func (r *transferRepository) Create(ctx context.Context, transfer domain.Transfer) error {
	rec := transferToModel(transfer)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *transferRepository) GetByHoldID(ctx context.Context, holdID string) (domain.Transfer, error) {
	var rec transferModel
	if err := r.db.WithContext(ctx).Where("hold_id = ?", holdID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transfer{}, domain.ErrNotFound
		}
		return domain.Transfer{}, err
	}
	return transferFromModel(rec), nil
}

var _ ports.TransferRepository = (*transferRepository)(nil)

type invoiceRepository struct {
	db *gorm.DB
}

func (r *invoiceRepository) GetByID(ctx context.Context, invoiceID string) (domain.Invoice, error) {
	var rec invoiceModel
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Invoice{}, domain.ErrNotFound
		}
		return domain.Invoice{}, err
	}
	return invoiceFromModel(rec), nil
}

var _ ports.InvoiceRepository = (*invoiceRepository)(nil)

type vendorRepository struct {
	db *gorm.DB
}

func (r *vendorRepository) GetByID(ctx context.Context, vendorID string) (domain.Vendor, error) {
	var rec vendorModel
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Vendor{}, domain.ErrNotFound
		}
		return domain.Vendor{}, err
	}
	return vendorFromModel(rec), nil
}

var _ ports.VendorRepository = (*vendorRepository)(nil)
