package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vowsmarket/settlement-service/internal/ports"
)

// Client talks to the external card processor over its REST API. Amounts
// cross the wire in integer minor units, same as they are stored.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateIntent(ctx context.Context, req ports.IntentRequest) (ports.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("metadata[invoice_id]", req.InvoiceID)
	form.Set("metadata[inquiry_id]", req.InquiryID)
	form.Set("metadata[payer_id]", req.PayerID)

	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers["Idempotency-Key"] = req.IdempotencyKey
	}
	var out intentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, headers, &out); err != nil {
		return ports.Intent{}, err
	}
	return ports.Intent{
		ProviderRef:  out.ID,
		ClientSecret: out.ClientSecret,
		Status:       out.Status,
	}, nil
}

func (c *Client) GetIntent(ctx context.Context, providerRef string) (ports.Intent, error) {
	var out intentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(providerRef), nil, nil, &out); err != nil {
		return ports.Intent{}, err
	}
	return ports.Intent{
		ProviderRef:  out.ID,
		ClientSecret: out.ClientSecret,
		Status:       out.Status,
	}, nil
}

func (c *Client) CreateTransfer(ctx context.Context, req ports.TransferRequest) (ports.TransferResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("destination", req.Destination)
	form.Set("source_transaction", req.SourceRef)
	form.Set("metadata[hold_id]", req.HoldID)
	form.Set("metadata[payment_id]", req.PaymentID)

	// The hold id doubles as the transfer idempotency key: one payout per
	// hold no matter how the release call is retried.
	headers := map[string]string{"Idempotency-Key": "transfer-" + req.HoldID}
	var out transferResponse
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", form, headers, &out); err != nil {
		return ports.TransferResult{}, err
	}
	return ports.TransferResult{TransferID: out.ID}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, headers map[string]string, out any) error {
	var body io.Reader
	if form != nil {
		body = bytes.NewBufferString(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("processor %s %s: %s (%s)", method, path, apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("processor %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
