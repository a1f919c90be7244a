package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceKind enum
type InvoiceKind string

const (
	InvoiceKindEmployee InvoiceKind = "employee"
	InvoiceKindB2B      InvoiceKind = "b2b"
)

// InvoiceStatus enum
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusConfirmed InvoiceStatus = "confirmed"
	InvoiceStatusPaid      InvoiceStatus = "paid"
)

// Invoice is a billing document generated from a schedule firing. An
// invoice has zero or one bill; a bill cannot exist before the invoice
// is confirmed.
type Invoice struct {
	ID          string
	CompanyID   string // issuing company
	ContractID  string
	EmployeeID  *string // set for employee invoices
	ToCompanyID *string // fixed B2B recipient; nil = claimable by any company
	Kind        InvoiceKind
	Amount      decimal.Decimal
	Currency    string
	Status      InvoiceStatus
	IssueDate   time.Time
	DueDate     time.Time
	SentAt      *time.Time
	ConfirmedAt *time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName  *string
	EmployeeEmail *string
}

// BillStatus enum. Transitions are monotonic:
// pending -> {overdue, paid, cancelled}; overdue -> {paid, cancelled};
// paid and cancelled are terminal.
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusPaid      BillStatus = "paid"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

// Bill is the payable record derived from a confirmed invoice, owned by
// the company that must pay. For B2B invoices that is the recipient,
// not the issuer.
type Bill struct {
	ID              string
	CompanyID       string
	InvoiceID       string
	Status          BillStatus
	PaidAt          *time.Time
	TransactionHash *string
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	Invoice *Invoice
}

// DueDate is inherited from the parent invoice.
func (b Bill) DueDate() (time.Time, bool) {
	if b.Invoice == nil {
		return time.Time{}, false
	}
	return b.Invoice.DueDate, true
}

// Payable reports whether the bill can still transition to paid.
func (b Bill) Payable() bool {
	return b.Status == BillStatusPending || b.Status == BillStatusOverdue
}
