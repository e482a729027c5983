package ports

import (
	"context"
	"time"
)

// Intent states as reported by the external card processor.
const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
	IntentStatusCancelled = "cancelled"
)

type IntentRequest struct {
	InvoiceID      string
	InquiryID      string
	Amount         int64
	Currency       string
	PayerID        string
	IdempotencyKey string
}

type Intent struct {
	ProviderRef  string
	ClientSecret string
	Status       string
}

type TransferRequest struct {
	Destination string
	Amount      int64
	Currency    string
	// SourceRef is the original payment's processor reference, tying the
	// payout back to the charge it settles.
	SourceRef string
	HoldID    string
	PaymentID string
}

type TransferResult struct {
	TransferID string
}

// Processor is the external card processor. Every call is a blocking I/O
// boundary; implementations must honor context deadlines.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	GetIntent(ctx context.Context, providerRef string) (Intent, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (TransferResult, error)
}

// WebhookVerifier authenticates a raw webhook delivery before any payload
// field is trusted.
type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string, now time.Time) error
}
