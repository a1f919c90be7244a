package xendit

import (
	"fmt"

	"github.com/paylane/payroll-backend-go/internal/config"
	xenditSDK "github.com/xendit/xendit-go/v7"
	"github.com/xendit/xendit-go/v7/invoice"
)

// Client wraps the official Xendit SDK. Settlement only needs the
// hosted payment page (invoice) API, so that is the only surface
// exposed here.
type Client struct {
	sdk        *xenditSDK.APIClient
	invoiceAPI invoice.InvoiceApi
	env        string
}

func NewClient(cfg config.XenditConfig) *Client {
	sdk := xenditSDK.NewClient(cfg.APIKey)

	return &Client{
		sdk:        sdk,
		invoiceAPI: sdk.InvoiceApi,
		env:        cfg.Environment,
	}
}

// IsSandbox reports whether the client talks to the Xendit sandbox.
// Payment pages created there never move real money.
func (c *Client) IsSandbox() bool {
	return c.env == "sandbox"
}

// APIError carries the gateway's error code alongside the HTTP status.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xendit API error [%d] %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}
