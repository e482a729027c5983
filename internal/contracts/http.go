package contracts

type CreateIntentRequest struct {
	InvoiceID string `json:"invoiceId"`
	InquiryID string `json:"inquiryId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
}

type CreateIntentResponse struct {
	PaymentID    string `json:"paymentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type ReleaseRequest struct {
	ReleaseMethod string `json:"releaseMethod"`
	ReleaseReason string `json:"releaseReason"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
