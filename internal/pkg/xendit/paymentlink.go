package xendit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xendit/xendit-go/v7/invoice"
)

// CreatePaymentLinkRequest describes a hosted payment page covering one
// settlement batch. Metadata carries the bill ids so the webhook can
// settle the right batch when the page is paid.
type CreatePaymentLinkRequest struct {
	ExternalID         string            `json:"external_id"`
	Amount             decimal.Decimal   `json:"amount"`
	Description        string            `json:"description"`
	PayerEmail         string            `json:"payer_email"`
	Currency           string            `json:"currency,omitempty"`
	Duration           int               `json:"duration,omitempty"` // seconds
	SuccessRedirectURL string            `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string            `json:"failure_redirect_url,omitempty"`
	Items              []PaymentLinkItem `json:"items,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// PaymentLinkItem is a line on the hosted page, one per settled bill
type PaymentLinkItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// PaymentLinkResponse represents the response from creating/getting a payment link
type PaymentLinkResponse struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"` // PENDING, PAID, SETTLED, EXPIRED
	Amount     float64   `json:"amount"`
	PayerEmail string    `json:"payer_email"`
	PaymentURL string    `json:"payment_url"`
	ExpiryDate time.Time `json:"expiry_date"`
	Currency   string    `json:"currency"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}

// CreatePaymentLink creates a hosted payment page via the Xendit invoice API
func (c *Client) CreatePaymentLink(ctx context.Context, req CreatePaymentLinkRequest) (*PaymentLinkResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "IDR"
	}

	// SDK takes float64 amounts
	amount, _ := req.Amount.Float64()

	sdkReq := *invoice.NewCreateInvoiceRequest(req.ExternalID, amount)

	if req.PayerEmail != "" {
		sdkReq.SetPayerEmail(req.PayerEmail)
	}
	if req.Description != "" {
		sdkReq.SetDescription(req.Description)
	}
	if req.Duration > 0 {
		sdkReq.SetInvoiceDuration(float32(req.Duration))
	}
	if req.SuccessRedirectURL != "" {
		sdkReq.SetSuccessRedirectUrl(req.SuccessRedirectURL)
	}
	if req.FailureRedirectURL != "" {
		sdkReq.SetFailureRedirectUrl(req.FailureRedirectURL)
	}
	sdkReq.SetCurrency(currency)

	if len(req.Items) > 0 {
		items := make([]invoice.InvoiceItem, len(req.Items))
		for i, item := range req.Items {
			price, _ := item.Price.Float64()
			items[i] = *invoice.NewInvoiceItem(item.Name, float32(price), float32(item.Quantity))
		}
		sdkReq.SetItems(items)
	}

	if len(req.Metadata) > 0 {
		metadata := make(map[string]interface{})
		for k, v := range req.Metadata {
			metadata[k] = v
		}
		sdkReq.SetMetadata(metadata)
	}

	resp, _, err := c.invoiceAPI.CreateInvoice(ctx).
		CreateInvoiceRequest(sdkReq).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	return toPaymentLinkResponse(resp), nil
}

// GetPaymentLink retrieves a payment link by its Xendit ID
func (c *Client) GetPaymentLink(ctx context.Context, id string) (*PaymentLinkResponse, error) {
	resp, _, err := c.invoiceAPI.GetInvoiceById(ctx, id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}

	return toPaymentLinkResponse(resp), nil
}

// ExpirePaymentLink invalidates a payment link before its natural expiry
func (c *Client) ExpirePaymentLink(ctx context.Context, id string) (*PaymentLinkResponse, error) {
	resp, _, err := c.invoiceAPI.ExpireInvoice(ctx, id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to expire payment link: %w", err)
	}

	return toPaymentLinkResponse(resp), nil
}

func toPaymentLinkResponse(inv *invoice.Invoice) *PaymentLinkResponse {
	if inv == nil {
		return nil
	}

	resp := &PaymentLinkResponse{
		ID:         inv.GetId(),
		ExternalID: inv.GetExternalId(),
		Status:     string(inv.GetStatus()),
		Amount:     inv.GetAmount(),
		PaymentURL: inv.GetInvoiceUrl(),
		ExpiryDate: inv.GetExpiryDate(),
		Currency:   string(inv.GetCurrency()),
		Created:    inv.GetCreated(),
		Updated:    inv.GetUpdated(),
	}

	if inv.HasPayerEmail() {
		resp.PayerEmail = inv.GetPayerEmail()
	}

	return resp
}

// Payment link status constants
const (
	PaymentLinkStatusPending = "PENDING"
	PaymentLinkStatusPaid    = "PAID"
	PaymentLinkStatusSettled = "SETTLED"
	PaymentLinkStatusExpired = "EXPIRED"
)
