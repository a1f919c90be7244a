package billing

import (
	"time"

	"github.com/paylane/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== INVOICE DTOs ==========

type InvoiceResponse struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	ContractID   string  `json:"contract_id"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	EmployeeName *string `json:"employee_name,omitempty"`
	ToCompanyID  *string `json:"to_company_id,omitempty"`
	Kind         string  `json:"kind"`
	Amount       string  `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
	IssueDate    string  `json:"issue_date"`
	DueDate      string  `json:"due_date"`
	SentAt       *string `json:"sent_at,omitempty"`
	ConfirmedAt  *string `json:"confirmed_at,omitempty"`
	PaidAt       *string `json:"paid_at,omitempty"`
}

type InvoiceFilter struct {
	Status     *InvoiceStatus
	Kind       *InvoiceKind
	ContractID *string
	Page       int
	Limit      int
}

type ListInvoiceResponse struct {
	Data       []InvoiceResponse `json:"data"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// ========== BILL DTOs ==========

type CreateBillRequest struct {
	InvoiceID string            `json:"invoice_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (r *CreateBillRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.InvoiceID) {
		errs = append(errs, validator.ValidationError{Field: "invoice_id", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BillResponse struct {
	ID              string            `json:"id"`
	CompanyID       string            `json:"company_id"`
	InvoiceID       string            `json:"invoice_id"`
	Status          string            `json:"status"`
	DueDate         *string           `json:"due_date,omitempty"`
	PaidAt          *string           `json:"paid_at,omitempty"`
	TransactionHash *string           `json:"transaction_hash,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Invoice         *InvoiceResponse  `json:"invoice,omitempty"`
}

type BillFilter struct {
	Status *BillStatus
	Page   int
	Limit  int
}

type ListBillResponse struct {
	Data       []BillResponse `json:"data"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// ========== SETTLEMENT DTOs ==========

type PayBillsRequest struct {
	BillIDs         []string `json:"bill_ids"`
	TransactionHash string   `json:"transaction_hash"`
}

func (r *PayBillsRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.BillIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "bill_ids", Message: "must not be empty"})
	}
	for _, id := range r.BillIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "bill_ids", Message: "contains an invalid id"})
			break
		}
	}
	if validator.IsEmpty(r.TransactionHash) {
		errs = append(errs, validator.ValidationError{Field: "transaction_hash", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SettlementResult reports a committed settlement. TotalAmount is the
// decimal sum of the settled invoice totals; notification outcomes do
// not affect it.
type SettlementResult struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	BillCount   int             `json:"bill_count"`
	PaidAt      time.Time       `json:"paid_at"`
}

// ========== PAYMENT LINK DTOs ==========

type CreatePaymentLinkRequest struct {
	BillIDs    []string `json:"bill_ids"`
	PayerEmail string   `json:"payer_email"`
}

func (r *CreatePaymentLinkRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.BillIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "bill_ids", Message: "must not be empty"})
	}
	if !validator.IsValidEmail(r.PayerEmail) {
		errs = append(errs, validator.ValidationError{Field: "payer_email", Message: "must be a valid email"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PaymentLinkResponse struct {
	ExternalID string `json:"external_id"`
	PaymentURL string `json:"payment_url"`
	Amount     string `json:"amount"`
	ExpiresAt  string `json:"expires_at"`
}
