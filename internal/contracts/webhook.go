package contracts

import "encoding/json"

// WebhookEvent is the processor's delivery envelope. Only the id, type and
// raw object are read before the event is dispatched by kind.
type WebhookEvent struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Created int64       `json:"created"`
	Data    WebhookData `json:"data"`
}

type WebhookData struct {
	Object json.RawMessage `json:"object"`
}

// PaymentObject is the intent payload carried by payment.* events.
type PaymentObject struct {
	Ref            string `json:"id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

// ChargeObject is the charge payload carried by charge.refunded events.
// AmountRefunded is cumulative across all refunds of the charge.
type ChargeObject struct {
	Ref            string `json:"id"`
	PaymentRef     string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
}
