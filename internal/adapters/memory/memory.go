package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vowsmarket/settlement-service/internal/domain"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

// Store backs every repository port with process-local maps. It exists for
// tests and credential-free local runs; the guards mirror the SQL
// conditions the postgres adapter relies on, locking included, so
// concurrency tests exercise the same semantics.
type Store struct {
	mu sync.Mutex

	payments     map[string]domain.Payment
	paymentByRef map[string]string
	holds        map[string]domain.EscrowHold
	holdByPaymnt map[string]string
	entries      map[string][]domain.RevenueEntry
	transfers    map[string]domain.Transfer
	invoices     map[string]domain.Invoice
	vendors      map[string]domain.Vendor
	idempotency  map[string]ports.IdempotencyRecord
	dedup        map[string]time.Time
	outbox       []ports.OutboxRecord
}

func NewStore() *Store {
	return &Store{
		payments:     make(map[string]domain.Payment),
		paymentByRef: make(map[string]string),
		holds:        make(map[string]domain.EscrowHold),
		holdByPaymnt: make(map[string]string),
		entries:      make(map[string][]domain.RevenueEntry),
		transfers:    make(map[string]domain.Transfer),
		invoices:     make(map[string]domain.Invoice),
		vendors:      make(map[string]domain.Vendor),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		dedup:        make(map[string]time.Time),
	}
}

// Seed helpers for tests.

func (s *Store) PutInvoice(invoice domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[invoice.InvoiceID] = invoice
}

func (s *Store) PutVendor(vendor domain.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[vendor.VendorID] = vendor
}

func (s *Store) PutHold(hold domain.EscrowHold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[hold.HoldID] = hold
	s.holdByPaymnt[hold.PaymentID] = hold.HoldID
}

func (s *Store) PutPayment(payment domain.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.PaymentID] = payment
	if payment.ProcessorRef != "" {
		s.paymentByRef[payment.ProcessorRef] = payment.PaymentID
	}
}

func (s *Store) HoldForPayment(paymentID string) (domain.EscrowHold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holdID, ok := s.holdByPaymnt[paymentID]
	if !ok {
		return domain.EscrowHold{}, false
	}
	return s.holds[holdID], true
}

func (s *Store) EntriesForPayment(paymentID string) []domain.RevenueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RevenueEntry(nil), s.entries[paymentID]...)
}

func (s *Store) OutboxRecords() []ports.OutboxRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.OutboxRecord(nil), s.outbox...)
}

// PaymentRepository

func (s *Store) Create(_ context.Context, payment domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.PaymentID]; exists {
		return domain.ErrConflict
	}
	if payment.ProcessorRef != "" {
		if _, exists := s.paymentByRef[payment.ProcessorRef]; exists {
			return domain.ErrConflict
		}
		s.paymentByRef[payment.ProcessorRef] = payment.PaymentID
	}
	s.payments[payment.PaymentID] = payment
	return nil
}

func (s *Store) GetByID(_ context.Context, paymentID string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return domain.Payment{}, domain.ErrNotFound
	}
	return payment, nil
}

func (s *Store) GetByProcessorRef(_ context.Context, processorRef string) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paymentID, ok := s.paymentByRef[processorRef]
	if !ok {
		return domain.Payment{}, domain.ErrNotFound
	}
	return s.payments[paymentID], nil
}

func (s *Store) ListByInvoiceID(_ context.Context, invoiceID string) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payment
	for _, payment := range s.payments {
		if payment.InvoiceID == invoiceID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (s *Store) Transition(_ context.Context, t ports.PaymentTransition) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[t.PaymentID]
	if !ok {
		return domain.Payment{}, domain.ErrNotFound
	}
	allowed := false
	for _, from := range t.From {
		if payment.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.Payment{}, domain.ErrConflict
	}
	payment.Status = t.To
	payment.UpdatedAt = t.At
	if t.FailureReason != "" {
		payment.FailureReason = t.FailureReason
	}
	if t.RefundedAmount != nil {
		payment.RefundedAmount = *t.RefundedAmount
	}
	if t.ProcessedAt != nil {
		payment.ProcessedAt = t.ProcessedAt
	}
	s.payments[t.PaymentID] = payment
	return payment, nil
}

// EscrowHoldRepository

func (s *Store) GetHoldByID(ctx context.Context, holdID string) (domain.EscrowHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold, ok := s.holds[holdID]
	if !ok {
		return domain.EscrowHold{}, domain.ErrNotFound
	}
	return hold, nil
}

func (s *Store) GetHoldByPaymentID(_ context.Context, paymentID string) (domain.EscrowHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holdID, ok := s.holdByPaymnt[paymentID]
	if !ok {
		return domain.EscrowHold{}, domain.ErrNotFound
	}
	return s.holds[holdID], nil
}

func (s *Store) MarkWorkCompleted(_ context.Context, holdID string, at time.Time) (domain.EscrowHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold, ok := s.holds[holdID]
	if !ok {
		return domain.EscrowHold{}, domain.ErrNotFound
	}
	if !hold.WorkCompleted {
		hold.WorkCompleted = true
		hold.UpdatedAt = at
		s.holds[holdID] = hold
	}
	return hold, nil
}

func (s *Store) Release(_ context.Context, params ports.ReleaseParams) (domain.EscrowHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold, ok := s.holds[params.HoldID]
	if !ok {
		return domain.EscrowHold{}, domain.ErrNotFound
	}
	if hold.Status != domain.HoldStatusHeld {
		return domain.EscrowHold{}, domain.ErrAlreadyReleased
	}
	at := params.At
	hold.Status = domain.HoldStatusReleased
	hold.ReleaseMethod = params.Method
	hold.ReleaseReason = params.Reason
	hold.ReleasedBy = params.ReleasedBy
	hold.ReleasedAt = &at
	hold.UpdatedAt = at
	s.holds[params.HoldID] = hold
	return hold, nil
}

// LedgerRepository

func (s *Store) CreateSettlement(_ context.Context, hold domain.EscrowHold, platformFee, vendorDue domain.RevenueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holdByPaymnt[hold.PaymentID]; exists {
		return domain.ErrConflict
	}
	invoice, ok := s.invoices[hold.InvoiceID]
	if !ok {
		return domain.ErrNotFound
	}
	s.holds[hold.HoldID] = hold
	s.holdByPaymnt[hold.PaymentID] = hold.HoldID
	s.entries[hold.PaymentID] = []domain.RevenueEntry{platformFee, vendorDue}
	invoice.PaidAmount += platformFee.Amount + vendorDue.Amount
	invoice.UpdatedAt = hold.CreatedAt
	s.invoices[hold.InvoiceID] = invoice
	return nil
}

func (s *Store) ListByPaymentID(_ context.Context, paymentID string) ([]domain.RevenueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RevenueEntry(nil), s.entries[paymentID]...), nil
}

func (s *Store) MarkVendorEntryPaid(_ context.Context, paymentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.entries[paymentID]
	for i, entry := range entries {
		if entry.EntryType == domain.RevenueEntryVendorDue && entry.TransferStatus == domain.TransferStatusPending {
			transferredAt := at
			entries[i].TransferStatus = domain.TransferStatusPaid
			entries[i].TransferredAt = &transferredAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// TransferRepository

func (s *Store) CreateTransfer(_ context.Context, transfer domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[transfer.HoldID]; exists {
		return domain.ErrConflict
	}
	s.transfers[transfer.HoldID] = transfer
	return nil
}

func (s *Store) GetTransferByHoldID(_ context.Context, holdID string) (domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transfer, ok := s.transfers[holdID]
	if !ok {
		return domain.Transfer{}, domain.ErrNotFound
	}
	return transfer, nil
}

// InvoiceRepository

func (s *Store) GetInvoiceByID(_ context.Context, invoiceID string) (domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.invoices[invoiceID]
	if !ok {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return invoice, nil
}

// VendorRepository

func (s *Store) GetVendorByID(_ context.Context, vendorID string) (domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vendor, ok := s.vendors[vendorID]
	if !ok {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return vendor, nil
}

// IdempotencyRepository

func (s *Store) GetIdempotency(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.idempotency[key]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *Store) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.idempotency[key]; exists {
		return domain.ErrIdempotencyConflict
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (s *Store) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.idempotency[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ResponseCode = responseCode
	rec.ResponseBody = append([]byte(nil), responseBody...)
	s.idempotency[key] = rec
	return nil
}

// EventDedupRepository

func (s *Store) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.dedup[eventID]
	return ok && expiry.After(now), nil
}

func (s *Store) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedup[eventID] = expiresAt
	return nil
}

// OutboxRepository

func (s *Store) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, ports.OutboxRecord{
		EventID:      event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Payload...),
		FirstSeenAt:  event.OccurredAt,
	})
	return nil
}

func (s *Store) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.OutboxRecord
	for _, rec := range s.outbox {
		if rec.PublishedAt == nil {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.outbox {
		if rec.EventID == eventID {
			publishedAt := at
			s.outbox[i].PublishedAt = &publishedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) MarkFailed(_ context.Context, eventID string, errMsg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.outbox {
		if rec.EventID == eventID {
			s.outbox[i].RetryCount = rec.RetryCount + 1
			return nil
		}
	}
	return domain.ErrNotFound
}
