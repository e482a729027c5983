package domain

import "time"

type HoldStatus string
type ReleaseMethod string

const (
	HoldStatusHeld     HoldStatus = "held"
	HoldStatusReleased HoldStatus = "released"
)

const (
	ReleaseMethodManual    ReleaseMethod = "manual"
	ReleaseMethodAutomatic ReleaseMethod = "automatic"
	ReleaseMethodScheduled ReleaseMethod = "scheduled"
)

// EscrowHold is the vendor's share of a succeeded payment, held by the
// platform until work completion is confirmed. Exactly one hold exists per
// settled payment, and the held→released transition is one-way.
type EscrowHold struct {
	HoldID        string        `json:"hold_id"`
	PaymentID     string        `json:"payment_id"`
	InvoiceID     string        `json:"invoice_id"`
	VendorID      string        `json:"vendor_id"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	WorkCompleted bool          `json:"work_completed"`
	Status        HoldStatus    `json:"status"`
	ReleaseMethod ReleaseMethod `json:"release_method,omitempty"`
	ReleaseReason string        `json:"release_reason,omitempty"`
	ReleasedBy    string        `json:"released_by,omitempty"`
	ReleasedAt    *time.Time    `json:"released_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func ValidReleaseMethod(method ReleaseMethod) bool {
	switch method {
	case ReleaseMethodManual, ReleaseMethodAutomatic, ReleaseMethodScheduled:
		return true
	}
	return false
}

type RevenueEntryType string
type TransferStatus string

const (
	RevenueEntryPlatformFee RevenueEntryType = "platform_fee"
	RevenueEntryVendorDue   RevenueEntryType = "vendor_due"
)

const (
	TransferStatusNone    TransferStatus = ""
	TransferStatusPending TransferStatus = "pending"
	TransferStatusPaid    TransferStatus = "paid"
)

// RevenueEntry is an immutable ledger row recording one side of a
// settlement split. A succeeded payment has exactly one platform_fee entry
// and one vendor_due entry; TransferStatus is tracked on the vendor side
// only.
type RevenueEntry struct {
	EntryID        string           `json:"entry_id"`
	PaymentID      string           `json:"payment_id"`
	InvoiceID      string           `json:"invoice_id"`
	VendorID       string           `json:"vendor_id"`
	EntryType      RevenueEntryType `json:"entry_type"`
	Amount         int64            `json:"amount"`
	Currency       string           `json:"currency"`
	TransferStatus TransferStatus   `json:"transfer_status,omitempty"`
	TransferredAt  *time.Time       `json:"transferred_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
