package application

import (
	"log/slog"
	"time"

	"github.com/vowsmarket/settlement-service/internal/ports"
)

type Config struct {
	ServiceName      string
	FeeBasisPoints   int64
	DefaultCurrency  string
	IntentTimeout    time.Duration
	TransferTimeout  time.Duration
	IdempotencyTTL   time.Duration
	EventDedupTTL    time.Duration
	StatusCacheTTL   time.Duration
	ReconcilePending bool
	WebhookTolerance time.Duration
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

const (
	RoleOperator = "operator"
	RoleSystem   = "system"
)

type CreateIntentInput struct {
	InvoiceID string
	InquiryID string
	Amount    int64
	Currency  string
	Method    string
}

type ReleaseInput struct {
	HoldID string
	Method string
	Reason string
}

// TransferOutcome classifies what the release orchestration did after the
// hold itself was released.
type TransferOutcome string

const (
	TransferOutcomePaid    TransferOutcome = "paid"
	TransferOutcomeSkipped TransferOutcome = "skipped"
	TransferOutcomeFailed  TransferOutcome = "failed"
)

type Service struct {
	cfg    Config
	logger *slog.Logger

	payments    ports.PaymentRepository
	holds       ports.EscrowHoldRepository
	ledger      ports.LedgerRepository
	transfers   ports.TransferRepository
	invoices    ports.InvoiceRepository
	vendors     ports.VendorRepository
	outbox      ports.OutboxRepository
	eventDedup  ports.EventDedupRepository
	idempotency ports.IdempotencyRepository

	processor ports.Processor
	verifier  ports.WebhookVerifier
	cache     ports.Cache

	nowFn func() time.Time
}

type Dependencies struct {
	Config      Config
	Logger      *slog.Logger
	Payments    ports.PaymentRepository
	Holds       ports.EscrowHoldRepository
	Ledger      ports.LedgerRepository
	Transfers   ports.TransferRepository
	Invoices    ports.InvoiceRepository
	Vendors     ports.VendorRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
	Processor   ports.Processor
	Verifier    ports.WebhookVerifier
	Cache       ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-service"
	}
	if cfg.FeeBasisPoints <= 0 {
		cfg.FeeBasisPoints = 1000
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = 10 * time.Second
	}
	if cfg.TransferTimeout <= 0 {
		cfg.TransferTimeout = 15 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = 30 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		payments:    deps.Payments,
		holds:       deps.Holds,
		ledger:      deps.Ledger,
		transfers:   deps.Transfers,
		invoices:    deps.Invoices,
		vendors:     deps.Vendors,
		outbox:      deps.Outbox,
		eventDedup:  deps.EventDedup,
		idempotency: deps.Idempotency,
		processor:   deps.Processor,
		verifier:    deps.Verifier,
		cache:       deps.Cache,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
