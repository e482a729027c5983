package ports

import (
	"context"
	"time"

	"github.com/vowsmarket/settlement-service/internal/domain"
)

// PaymentTransition is a status-guarded update. The repository applies it
// only while the payment's current status is one of From; a lost race
// returns domain.ErrConflict so callers can re-read and decide.
type PaymentTransition struct {
	PaymentID      string
	From           []domain.PaymentStatus
	To             domain.PaymentStatus
	FailureReason  string
	RefundedAmount *int64
	ProcessedAt    *time.Time
	At             time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) error
	GetByID(ctx context.Context, paymentID string) (domain.Payment, error)
	GetByProcessorRef(ctx context.Context, processorRef string) (domain.Payment, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]domain.Payment, error)
	Transition(ctx context.Context, t PaymentTransition) (domain.Payment, error)
}

// ReleaseParams drive the one-way held→released compare-and-set.
type ReleaseParams struct {
	HoldID     string
	Method     domain.ReleaseMethod
	Reason     string
	ReleasedBy string
	At         time.Time
}

type EscrowHoldRepository interface {
	GetByID(ctx context.Context, holdID string) (domain.EscrowHold, error)
	GetByPaymentID(ctx context.Context, paymentID string) (domain.EscrowHold, error)
	// MarkWorkCompleted sets the one-way work_completed flag; repeated calls
	// are no-ops.
	MarkWorkCompleted(ctx context.Context, holdID string, at time.Time) (domain.EscrowHold, error)
	// Release transitions the hold from held to released atomically
	// (update-if-status-held). It returns domain.ErrAlreadyReleased when the
	// hold exists but is no longer held.
	Release(ctx context.Context, params ReleaseParams) (domain.EscrowHold, error)
}

type LedgerRepository interface {
	// CreateSettlement writes the hold, both revenue entries and the invoice
	// paid-amount increment in a single atomic unit. A hold already existing
	// for the payment returns domain.ErrConflict and writes nothing, which
	// keeps the invoice bookkeeping exactly-once per payment.
	CreateSettlement(ctx context.Context, hold domain.EscrowHold, platformFee, vendorDue domain.RevenueEntry) error
	ListByPaymentID(ctx context.Context, paymentID string) ([]domain.RevenueEntry, error)
	MarkVendorEntryPaid(ctx context.Context, paymentID string, at time.Time) error
}

type TransferRepository interface {
	Create(ctx context.Context, transfer domain.Transfer) error
	GetByHoldID(ctx context.Context, holdID string) (domain.Transfer, error)
}

type InvoiceRepository interface {
	GetByID(ctx context.Context, invoiceID string) (domain.Invoice, error)
}

type VendorRepository interface {
	GetByID(ctx context.Context, vendorID string) (domain.Vendor, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxEvent struct {
	EventID      string
	EventType    string
	PartitionKey string
	Payload      []byte
	TraceID      string
	OccurredAt   time.Time
}

type OutboxRecord struct {
	EventID      string
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string, errMsg string, at time.Time) error
}
