package domain

import "time"

type InvoiceStatus string

const (
	InvoiceStatusOpen      InvoiceStatus = "open"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is the billable unit a payment settles against. The engine reads
// it for validation and only writes paid-amount bookkeeping.
type Invoice struct {
	InvoiceID   string        `json:"invoice_id"`
	InquiryID   string        `json:"inquiry_id"`
	VendorID    string        `json:"vendor_id"`
	UserID      string        `json:"user_id"`
	TotalAmount int64         `json:"total_amount"`
	PaidAmount  int64         `json:"paid_amount"`
	Currency    string        `json:"currency"`
	Status      InvoiceStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (i Invoice) RemainingBalance() int64 {
	remaining := i.TotalAmount - i.PaidAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (i Invoice) Closed() bool {
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled {
		return true
	}
	return i.RemainingBalance() == 0
}

// Vendor carries the payout capability this engine reads; vendor records
// are owned by the marketplace profile system.
type Vendor struct {
	VendorID          string `json:"vendor_id"`
	DisplayName       string `json:"display_name"`
	PayoutDestination string `json:"payout_destination,omitempty"`
	PayoutsEnabled    bool   `json:"payouts_enabled"`
}

// TransferCapable reports whether an external payout can be attempted for
// this vendor. A vendor without a destination still gets escrow bookkeeping;
// only the external transfer is skipped.
func (v Vendor) TransferCapable() bool {
	return v.PayoutsEnabled && v.PayoutDestination != ""
}
