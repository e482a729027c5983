package domain

import "time"

// Transfer records a payout executed against the processor's transfer API.
// At most one transfer exists per escrow hold.
type Transfer struct {
	TransferID          string    `json:"transfer_id"`
	HoldID              string    `json:"hold_id"`
	PaymentID           string    `json:"payment_id"`
	VendorID            string    `json:"vendor_id"`
	Amount              int64     `json:"amount"`
	Currency            string    `json:"currency"`
	Destination         string    `json:"destination"`
	ProcessorTransferID string    `json:"processor_transfer_id"`
	CreatedAt           time.Time `json:"created_at"`
}
