package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type PaymentSettledPayload struct {
	PaymentID    string `json:"payment_id"`
	InvoiceID    string `json:"invoice_id"`
	VendorID     string `json:"vendor_id"`
	Amount       int64  `json:"amount"`
	PlatformFee  int64  `json:"platform_fee"`
	VendorAmount int64  `json:"vendor_amount"`
	Currency     string `json:"currency"`
	HoldID       string `json:"hold_id"`
	SettledAt    string `json:"settled_at"`
}

type PaymentFailedPayload struct {
	PaymentID     string `json:"payment_id"`
	InvoiceID     string `json:"invoice_id"`
	FailureReason string `json:"failure_reason,omitempty"`
	FailedAt      string `json:"failed_at"`
}

type PaymentRefundedPayload struct {
	PaymentID      string `json:"payment_id"`
	InvoiceID      string `json:"invoice_id"`
	Amount         int64  `json:"amount"`
	RefundedAmount int64  `json:"refunded_amount"`
	Status         string `json:"status"`
	RefundedAt     string `json:"refunded_at"`
}

type EscrowReleasedPayload struct {
	HoldID        string `json:"hold_id"`
	PaymentID     string `json:"payment_id"`
	VendorID      string `json:"vendor_id"`
	Amount        int64  `json:"amount"`
	ReleaseMethod string `json:"release_method"`
	ReleaseReason string `json:"release_reason,omitempty"`
	ReleasedBy    string `json:"released_by,omitempty"`
	ReleasedAt    string `json:"released_at"`
}

type TransferPaidPayload struct {
	TransferID          string `json:"transfer_id"`
	HoldID              string `json:"hold_id"`
	PaymentID           string `json:"payment_id"`
	VendorID            string `json:"vendor_id"`
	Amount              int64  `json:"amount"`
	Currency            string `json:"currency"`
	ProcessorTransferID string `json:"processor_transfer_id"`
	PaidAt              string `json:"paid_at"`
}
