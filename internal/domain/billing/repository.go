package billing

import (
	"context"
	"time"
)

// InvoiceRepository defines data access for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	GetByID(ctx context.Context, id string, companyID string) (Invoice, error)
	// GetByIDAny fetches without company scoping; bill creation for a
	// claimable B2B invoice crosses company boundaries.
	GetByIDAny(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, companyID string, filter InvoiceFilter) ([]Invoice, int64, error)
	ExistsByContract(ctx context.Context, contractID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, companyID string, status InvoiceStatus, at time.Time) error
	// MarkPaid bulk-updates invoices to paid. Runs inside the
	// settlement transaction.
	MarkPaid(ctx context.Context, ids []string, paidAt time.Time) error
}

// BillRepository defines data access for bills.
type BillRepository interface {
	Create(ctx context.Context, b Bill) (Bill, error)
	GetByID(ctx context.Context, id string, companyID string) (Bill, error)
	List(ctx context.Context, companyID string, filter BillFilter) ([]Bill, int64, error)
	// ListPayableByIDs loads payable (pending/overdue) bills with their
	// invoices, scoped to the paying company. Callers compare the result
	// count against the requested ids to detect a partial match.
	ListPayableByIDs(ctx context.Context, ids []string, companyID string) ([]Bill, error)
	// MarkPaid bulk-updates bills to paid with the payment proof. Runs
	// inside the settlement transaction.
	MarkPaid(ctx context.Context, ids []string, paidAt time.Time, transactionHash string) error
	// MarkOverdue transitions every pending bill whose invoice due date
	// is strictly before asOf. Returns the number of rows affected;
	// repeat runs affect zero rows.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id string, companyID string, status BillStatus) error
}

// BillService owns per-bill state transitions.
type BillService interface {
	CreateFromInvoice(ctx context.Context, req CreateBillRequest) (BillResponse, error)
	Get(ctx context.Context, id string) (BillResponse, error)
	List(ctx context.Context, filter BillFilter) (ListBillResponse, error)
	Cancel(ctx context.Context, id string) error
	MarkOverdueBills(ctx context.Context, asOf time.Time) (int64, error)
}

// InvoiceService exposes invoice reads and the confirmation flow.
type InvoiceService interface {
	Get(ctx context.Context, id string) (InvoiceResponse, error)
	List(ctx context.Context, filter InvoiceFilter) (ListInvoiceResponse, error)
	Send(ctx context.Context, id string) error
	Confirm(ctx context.Context, id string) error
}

// SettlementService applies one payment event to many bills atomically.
type SettlementService interface {
	// PayBills settles the batch for companyID. Either every bill and
	// its invoice transition to paid together, or nothing changes.
	PayBills(ctx context.Context, companyID string, billIDs []string, transactionHash string) (SettlementResult, error)
	// CreatePaymentLink exposes a payable batch as a hosted payment
	// page; the gateway webhook feeds PayBills on success.
	CreatePaymentLink(ctx context.Context, companyID string, req CreatePaymentLinkRequest) (PaymentLinkResponse, error)
}
