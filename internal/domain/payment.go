package domain

import (
	"strings"
	"time"
)

type PaymentStatus string
type PaymentMethod string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// Payment is a single attempt to collect money against an invoice.
// Amount and RefundedAmount are integer minor units.
type Payment struct {
	PaymentID      string        `json:"payment_id"`
	InvoiceID      string        `json:"invoice_id"`
	InquiryID      string        `json:"inquiry_id"`
	VendorID       string        `json:"vendor_id"`
	PayerID        string        `json:"payer_id,omitempty"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	Method         PaymentMethod `json:"method"`
	Status         PaymentStatus `json:"status"`
	ProcessorRef   string        `json:"processor_ref"`
	FailureReason  string        `json:"failure_reason,omitempty"`
	RefundedAmount int64         `json:"refunded_amount"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Terminal reports whether the status admits no further lifecycle
// transitions other than refund bookkeeping.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransition is the closed Payment state machine. Webhook handlers call
// this before applying any processor-reported transition; everything not
// listed here is illegal and must be rejected.
func CanTransition(from, to PaymentStatus) bool {
	switch from {
	case PaymentStatusPending:
		switch to {
		case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled:
			return true
		}
	case PaymentStatusSucceeded:
		switch to {
		case PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
			return true
		}
	case PaymentStatusPartiallyRefunded:
		switch to {
		case PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
			return true
		}
	}
	return false
}

func ValidateIntentInput(invoiceID, inquiryID string, amount int64, method PaymentMethod) error {
	if strings.TrimSpace(invoiceID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(inquiryID) == "" {
		return ErrInvalidInput
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if method != PaymentMethodCard && method != PaymentMethodBankTransfer {
		return ErrInvalidInput
	}
	return nil
}
