package postgres

import (
	"github.com/vowsmarket/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Payments    ports.PaymentRepository
	Holds       ports.EscrowHoldRepository
	Ledger      ports.LedgerRepository
	Transfers   ports.TransferRepository
	Invoices    ports.InvoiceRepository
	Vendors     ports.VendorRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Payments:    &paymentRepository{db: db},
		Holds:       &escrowHoldRepository{db: db},
		Ledger:      &ledgerRepository{db: db},
		Transfers:   &transferRepository{db: db},
		Invoices:    &invoiceRepository{db: db},
		Vendors:     &vendorRepository{db: db},
		Outbox:      &outboxRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}
