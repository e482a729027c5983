package domain

const (
	EventPaymentSettled           = "payment.settled"
	EventPaymentFailed            = "payment.failed"
	EventPaymentCancelled         = "payment.cancelled"
	EventPaymentRefunded          = "payment.refunded"
	EventPaymentPartiallyRefunded = "payment.partially_refunded"
	EventEscrowReleased           = "escrow.released"
	EventTransferPaid             = "transfer.paid"
)

// Webhook event kinds as delivered by the external card processor.
const (
	WebhookPaymentSucceeded = "payment.succeeded"
	WebhookPaymentFailed    = "payment.failed"
	WebhookPaymentCancelled = "payment.cancelled"
	WebhookChargeRefunded   = "charge.refunded"
)
