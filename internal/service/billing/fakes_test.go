package billing

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
	"github.com/paylane/payroll-backend-go/internal/pkg/payslip"
	"github.com/paylane/payroll-backend-go/internal/pkg/xendit"
)

func passthroughTx() database.TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
}

func authedContext(t *testing.T, companyID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"company_id": companyID,
		"type":       "access",
	})
	if err != nil {
		t.Fatal(err)
	}
	return jwtauth.NewContext(context.Background(), token, nil)
}

// ========== INVOICE REPO ==========

type fakeInvoiceRepo struct {
	invoices map[string]billing.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[string]billing.Invoice)}
}

func (r *fakeInvoiceRepo) seed(inv billing.Invoice) billing.Invoice {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	r.invoices[inv.ID] = inv
	return inv
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	for _, existing := range r.invoices {
		if existing.ContractID == inv.ContractID && existing.DueDate.Equal(inv.DueDate) {
			return billing.Invoice{}, billing.ErrInvoiceAlreadyExists
		}
	}
	return r.seed(inv), nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id string, companyID string) (billing.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return billing.Invoice{}, billing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) GetByIDAny(ctx context.Context, id string) (billing.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return billing.Invoice{}, billing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, companyID string, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	var out []billing.Invoice
	for _, inv := range r.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.Kind != nil && inv.Kind != *filter.Kind {
			continue
		}
		if filter.ContractID != nil && inv.ContractID != *filter.ContractID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) ExistsByContract(ctx context.Context, contractID string) (bool, error) {
	for _, inv := range r.invoices {
		if inv.ContractID == contractID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) UpdateStatus(ctx context.Context, id string, companyID string, status billing.InvoiceStatus, at time.Time) error {
	inv, ok := r.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return billing.ErrInvoiceNotFound
	}
	inv.Status = status
	switch status {
	case billing.InvoiceStatusSent:
		inv.SentAt = &at
	case billing.InvoiceStatusConfirmed:
		inv.ConfirmedAt = &at
	case billing.InvoiceStatusPaid:
		inv.PaidAt = &at
	}
	r.invoices[id] = inv
	return nil
}

func (r *fakeInvoiceRepo) MarkPaid(ctx context.Context, ids []string, paidAt time.Time) error {
	for _, id := range ids {
		inv, ok := r.invoices[id]
		if !ok {
			return billing.ErrInvoiceNotFound
		}
		inv.Status = billing.InvoiceStatusPaid
		inv.PaidAt = &paidAt
		r.invoices[id] = inv
	}
	return nil
}

// ========== BILL REPO ==========

type fakeBillRepo struct {
	bills    map[string]billing.Bill
	invoices *fakeInvoiceRepo
}

func newFakeBillRepo(invoices *fakeInvoiceRepo) *fakeBillRepo {
	return &fakeBillRepo{bills: make(map[string]billing.Bill), invoices: invoices}
}

func (r *fakeBillRepo) seed(b billing.Bill) billing.Bill {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.bills[b.ID] = b
	return b
}

func (r *fakeBillRepo) Create(ctx context.Context, b billing.Bill) (billing.Bill, error) {
	for _, existing := range r.bills {
		if existing.InvoiceID == b.InvoiceID {
			return billing.Bill{}, billing.ErrBillAlreadyExists
		}
	}
	return r.seed(b), nil
}

func (r *fakeBillRepo) withInvoice(b billing.Bill) billing.Bill {
	if inv, ok := r.invoices.invoices[b.InvoiceID]; ok {
		b.Invoice = &inv
	}
	return b
}

func (r *fakeBillRepo) GetByID(ctx context.Context, id string, companyID string) (billing.Bill, error) {
	b, ok := r.bills[id]
	if !ok || b.CompanyID != companyID {
		return billing.Bill{}, billing.ErrBillNotFound
	}
	return r.withInvoice(b), nil
}

func (r *fakeBillRepo) List(ctx context.Context, companyID string, filter billing.BillFilter) ([]billing.Bill, int64, error) {
	var out []billing.Bill
	for _, b := range r.bills {
		if b.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, r.withInvoice(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeBillRepo) ListPayableByIDs(ctx context.Context, ids []string, companyID string) ([]billing.Bill, error) {
	var out []billing.Bill
	for _, id := range ids {
		b, ok := r.bills[id]
		if !ok || b.CompanyID != companyID || !b.Payable() {
			continue
		}
		out = append(out, r.withInvoice(b))
	}
	return out, nil
}

func (r *fakeBillRepo) MarkPaid(ctx context.Context, ids []string, paidAt time.Time, transactionHash string) error {
	for _, id := range ids {
		b, ok := r.bills[id]
		if !ok || !b.Payable() {
			return billing.ErrBillNotPayable
		}
		b.Status = billing.BillStatusPaid
		b.PaidAt = &paidAt
		b.TransactionHash = &transactionHash
		r.bills[id] = b
	}
	return nil
}

func (r *fakeBillRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, b := range r.bills {
		if b.Status != billing.BillStatusPending {
			continue
		}
		inv, ok := r.invoices.invoices[b.InvoiceID]
		if !ok || !inv.DueDate.Before(asOf) {
			continue
		}
		b.Status = billing.BillStatusOverdue
		r.bills[id] = b
		n++
	}
	return n, nil
}

func (r *fakeBillRepo) UpdateStatus(ctx context.Context, id string, companyID string, status billing.BillStatus) error {
	b, ok := r.bills[id]
	if !ok || b.CompanyID != companyID {
		return billing.ErrBillNotFound
	}
	b.Status = status
	r.bills[id] = b
	return nil
}

// ========== COMPANY REPO ==========

type fakeCompanyRepo struct {
	companies map[string]company.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[string]company.Company)}
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) Create(ctx context.Context, c company.Company) (company.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.companies[c.ID] = c
	return c, nil
}

// ========== NOTIFICATION DOUBLES ==========

type sentEmail struct {
	To      string
	Subject string
	HasDoc  bool
}

type fakeEmailService struct {
	sent []sentEmail
}

func (f *fakeEmailService) SendInvoiceIssued(to, recipientName, companyName, amount, currency, dueDate string) error {
	f.sent = append(f.sent, sentEmail{To: to, Subject: "invoice"})
	return nil
}

func (f *fakeEmailService) SendPayslip(to, employeeName, companyName, period, amount, currency string, doc []byte) error {
	f.sent = append(f.sent, sentEmail{To: to, Subject: "payslip", HasDoc: len(doc) > 0})
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(data payslip.Data) ([]byte, error) {
	return []byte("payslip " + data.Period), nil
}

type fakeGateway struct {
	lastReq *xendit.CreatePaymentLinkRequest
	resp    *xendit.PaymentLinkResponse
	err     error
}

func (f *fakeGateway) CreatePaymentLink(ctx context.Context, req xendit.CreatePaymentLinkRequest) (*xendit.PaymentLinkResponse, error) {
	f.lastReq = &req
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	amount, _ := req.Amount.Float64()
	return &xendit.PaymentLinkResponse{
		ID:         uuid.NewString(),
		ExternalID: req.ExternalID,
		Status:     xendit.PaymentLinkStatusPending,
		Amount:     amount,
		PaymentURL: "https://checkout.example.com/" + req.ExternalID,
		ExpiryDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		Currency:   req.Currency,
	}, nil
}

// ========== SEED HELPERS ==========

const (
	issuerCompanyID = "11111111-1111-1111-1111-111111111111"
	payerCompanyID  = "22222222-2222-2222-2222-222222222222"
)

func employeeInvoice(status billing.InvoiceStatus) billing.Invoice {
	employeeID := "emp-1"
	name := "Jane Doe"
	mail := "jane.doe@example.com"
	return billing.Invoice{
		CompanyID:     issuerCompanyID,
		ContractID:    uuid.NewString(),
		EmployeeID:    &employeeID,
		Kind:          billing.InvoiceKindEmployee,
		Amount:        decimal.RequireFromString("2500.00"),
		Currency:      "USD",
		Status:        status,
		IssueDate:     time.Date(2024, time.January, 26, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		EmployeeName:  &name,
		EmployeeEmail: &mail,
	}
}

func b2bInvoice(status billing.InvoiceStatus, toCompanyID *string) billing.Invoice {
	return billing.Invoice{
		CompanyID:   issuerCompanyID,
		ContractID:  uuid.NewString(),
		ToCompanyID: toCompanyID,
		Kind:        billing.InvoiceKindB2B,
		Amount:      decimal.RequireFromString("9000.00"),
		Currency:    "USD",
		Status:      status,
		IssueDate:   time.Date(2024, time.January, 26, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	}
}
