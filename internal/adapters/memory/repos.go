package memory

import (
	"context"
	"time"

	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// Per-port views over a shared Store. Several ports use the same method
// names (Create, GetByID), so each gets its own thin wrapper type.

type holdRepo struct{ s *Store }

func (r holdRepo) GetByID(ctx context.Context, holdID string) (domain.EscrowHold, error) {
	return r.s.GetHoldByID(ctx, holdID)
}

func (r holdRepo) GetByPaymentID(ctx context.Context, paymentID string) (domain.EscrowHold, error) {
	return r.s.GetHoldByPaymentID(ctx, paymentID)
}

func (r holdRepo) MarkWorkCompleted(ctx context.Context, holdID string, at time.Time) (domain.EscrowHold, error) {
	return r.s.MarkWorkCompleted(ctx, holdID, at)
}

func (r holdRepo) Release(ctx context.Context, params ports.ReleaseParams) (domain.EscrowHold, error) {
	return r.s.Release(ctx, params)
}

type transferRepo struct{ s *Store }

func (r transferRepo) Create(ctx context.Context, transfer domain.Transfer) error {
	return r.s.CreateTransfer(ctx, transfer)
}

func (r transferRepo) GetByHoldID(ctx context.Context, holdID string) (domain.Transfer, error) {
	return r.s.GetTransferByHoldID(ctx, holdID)
}

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) GetByID(ctx context.Context, invoiceID string) (domain.Invoice, error) {
	return r.s.GetInvoiceByID(ctx, invoiceID)
}

type vendorRepo struct{ s *Store }

func (r vendorRepo) GetByID(ctx context.Context, vendorID string) (domain.Vendor, error) {
	return r.s.GetVendorByID(ctx, vendorID)
}

type idempotencyRepo struct{ s *Store }

func (r idempotencyRepo) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	return r.s.GetIdempotency(ctx, key, now)
}

func (r idempotencyRepo) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	return r.s.Reserve(ctx, key, requestHash, expiresAt)
}

func (r idempotencyRepo) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	return r.s.Complete(ctx, key, responseCode, responseBody, at)
}

func (s *Store) Payments() ports.PaymentRepository        { return s }
func (s *Store) Holds() ports.EscrowHoldRepository        { return holdRepo{s} }
func (s *Store) Ledger() ports.LedgerRepository           { return s }
func (s *Store) Transfers() ports.TransferRepository      { return transferRepo{s} }
func (s *Store) Invoices() ports.InvoiceRepository        { return invoiceRepo{s} }
func (s *Store) Vendors() ports.VendorRepository          { return vendorRepo{s} }
func (s *Store) Idempotency() ports.IdempotencyRepository { return idempotencyRepo{s} }
func (s *Store) EventDedup() ports.EventDedupRepository   { return s }
func (s *Store) Outbox() ports.OutboxRepository           { return s }

var (
	_ ports.PaymentRepository    = (*Store)(nil)
	_ ports.LedgerRepository     = (*Store)(nil)
	_ ports.EventDedupRepository = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
)
