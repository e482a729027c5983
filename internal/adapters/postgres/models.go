package postgres

import "time"

type paymentModel struct {
	PaymentID      string     `gorm:"column:payment_id;type:uuid;primaryKey"`
	InvoiceID      string     `gorm:"column:invoice_id;type:uuid"`
	InquiryID      string     `gorm:"column:inquiry_id;type:uuid"`
	VendorID       string     `gorm:"column:vendor_id;type:uuid"`
	PayerID        string     `gorm:"column:payer_id"`
	Amount         int64      `gorm:"column:amount"`
	Currency       string     `gorm:"column:currency"`
	Method         string     `gorm:"column:method"`
	Status         string     `gorm:"column:status"`
	ProcessorRef   string     `gorm:"column:processor_ref"`
	FailureReason  string     `gorm:"column:failure_reason"`
	RefundedAmount int64      `gorm:"column:refunded_amount"`
	ProcessedAt    *time.Time `gorm:"column:processed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

type escrowHoldModel struct {
	HoldID        string     `gorm:"column:hold_id;type:uuid;primaryKey"`
	PaymentID     string     `gorm:"column:payment_id;type:uuid"`
	InvoiceID     string     `gorm:"column:invoice_id;type:uuid"`
	VendorID      string     `gorm:"column:vendor_id;type:uuid"`
	Amount        int64      `gorm:"column:amount"`
	Currency      string     `gorm:"column:currency"`
	WorkCompleted bool       `gorm:"column:work_completed"`
	Status        string     `gorm:"column:status"`
	ReleaseMethod string     `gorm:"column:release_method"`
	ReleaseReason string     `gorm:"column:release_reason"`
	ReleasedBy    string     `gorm:"column:released_by"`
	ReleasedAt    *time.Time `gorm:"column:released_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (escrowHoldModel) TableName() string { return "escrow_holds" }

type revenueEntryModel struct {
	EntryID        string     `gorm:"column:entry_id;type:uuid;primaryKey"`
	PaymentID      string     `gorm:"column:payment_id;type:uuid"`
	InvoiceID      string     `gorm:"column:invoice_id;type:uuid"`
	VendorID       string     `gorm:"column:vendor_id;type:uuid"`
	EntryType      string     `gorm:"column:entry_type"`
	Amount         int64      `gorm:"column:amount"`
	Currency       string     `gorm:"column:currency"`
	TransferStatus string     `gorm:"column:transfer_status"`
	TransferredAt  *time.Time `gorm:"column:transferred_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (revenueEntryModel) TableName() string { return "revenue_entries" }

type transferModel struct {
	TransferID          string    `gorm:"column:transfer_id;type:uuid;primaryKey"`
	HoldID              string    `gorm:"column:hold_id;type:uuid"`
	PaymentID           string    `gorm:"column:payment_id;type:uuid"`
	VendorID            string    `gorm:"column:vendor_id;type:uuid"`
	Amount              int64     `gorm:"column:amount"`
	Currency            string    `gorm:"column:currency"`
	Destination         string    `gorm:"column:destination"`
	ProcessorTransferID string    `gorm:"column:processor_transfer_id"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

func (transferModel) TableName() string { return "transfers" }

type invoiceModel struct {
	InvoiceID   string    `gorm:"column:invoice_id;type:uuid;primaryKey"`
	InquiryID   string    `gorm:"column:inquiry_id;type:uuid"`
	VendorID    string    `gorm:"column:vendor_id;type:uuid"`
	UserID      string    `gorm:"column:user_id;type:uuid"`
	TotalAmount int64     `gorm:"column:total_amount"`
	PaidAmount  int64     `gorm:"column:paid_amount"`
	Currency    string    `gorm:"column:currency"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (invoiceModel) TableName() string { return "invoices" }

type vendorModel struct {
	VendorID          string `gorm:"column:vendor_id;type:uuid;primaryKey"`
	DisplayName       string `gorm:"column:display_name"`
	PayoutDestination string `gorm:"column:payout_destination"`
	PayoutsEnabled    bool   `gorm:"column:payouts_enabled"`
}

func (vendorModel) TableName() string { return "vendors" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "payment_idempotency_keys" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "webhook_event_ledger" }

type outboxModel struct {
	EventID      string     `gorm:"column:event_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload"`
	TraceID      string     `gorm:"column:trace_id"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    string     `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	FirstSeenAt  time.Time  `gorm:"column:first_seen_at"`
}

func (outboxModel) TableName() string { return "settlement_outbox" }
