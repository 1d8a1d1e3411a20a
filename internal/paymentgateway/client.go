// Package paymentgateway реализует клиент платёжного шлюза Xendit.
//
// Используется API счетов (invoices): платформа создаёт счёт на пакет
// кредитов, покупатель оплачивает его на стороне Xendit, подтверждение
// приходит вебхуком с заголовком x-callback-token.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.xendit.co"

// Client клиент Xendit.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Xendit. Секретный ключ передаётся
// через Basic auth с пустым паролем, как того требует API.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateInvoiceRequest запрос на выставление счёта.
type CreateInvoiceRequest struct {
	ExternalID         string `json:"external_id"`
	Amount             int64  `json:"amount"`
	PayerEmail         string `json:"payer_email"`
	Description        string `json:"description"`
	SuccessRedirectURL string `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string `json:"failure_redirect_url,omitempty"`
}

// CreateInvoiceResponse ответ Xendit на выставление счёта.
type CreateInvoiceResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

// InvoiceCallback тело вебхука о смене статуса счёта.
type InvoiceCallback struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"` // PAID или EXPIRED
	PaidAmount int64  `json:"paid_amount"`
	PaidAt     string `json:"paid_at"`
}

// CreateInvoice выставляет счёт и возвращает ссылку на страницу оплаты.
func (c *Client) CreateInvoice(ctx context.Context, reqParams CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqParams); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v2/invoices", &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}

	var invoiceResp CreateInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoiceResp); err != nil {
		return nil, err
	}
	return &invoiceResp, nil
}
