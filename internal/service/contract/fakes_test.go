package contract

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/domain/employee"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"

	"github.com/go-chi/jwtauth/v5"
)

// In-memory repositories mirroring the SQL-level semantics, so the
// service logic can be exercised without a database.

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

// ========== CONTRACT REPO ==========

type fakeContractRepo struct {
	contracts map[string]contract.Contract
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{contracts: make(map[string]contract.Contract)}
}

func (r *fakeContractRepo) Create(ctx context.Context, c contract.Contract) (contract.Contract, error) {
	for _, existing := range r.contracts {
		if existing.EmployeeID == c.EmployeeID && existing.Status == contract.ContractStatusActive {
			return contract.Contract{}, contract.ErrActiveContractExists
		}
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.contracts[c.ID] = c
	return c, nil
}

func (r *fakeContractRepo) GetByID(ctx context.Context, id string, companyID string) (contract.Contract, error) {
	c, ok := r.contracts[id]
	if !ok || c.CompanyID != companyID {
		return contract.Contract{}, contract.ErrContractNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) GetByIDAny(ctx context.Context, id string) (contract.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return contract.Contract{}, contract.ErrContractNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) GetActiveByEmployee(ctx context.Context, employeeID string, companyID string) (contract.Contract, error) {
	for _, c := range r.contracts {
		if c.EmployeeID == employeeID && c.CompanyID == companyID && c.Status == contract.ContractStatusActive {
			return c, nil
		}
	}
	return contract.Contract{}, contract.ErrContractNotFound
}

func (r *fakeContractRepo) List(ctx context.Context, companyID string, filter contract.ContractFilter) ([]contract.Contract, int64, error) {
	var out []contract.Contract
	for _, c := range r.contracts {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && c.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeContractRepo) Update(ctx context.Context, companyID string, req contract.UpdateContractRequest) error {
	c, ok := r.contracts[req.ID]
	if !ok || c.CompanyID != companyID {
		return contract.ErrContractNotFound
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return err
		}
		c.Amount = amount
	}
	if req.CycleMonths != nil {
		c.CycleMonths = *req.CycleMonths
	}
	if req.Payday != nil {
		c.Payday = *req.Payday
	}
	c.UpdatedAt = time.Now()
	r.contracts[req.ID] = c
	return nil
}

func (r *fakeContractRepo) UpdateStatus(ctx context.Context, id string, companyID string, status contract.ContractStatus) error {
	c, ok := r.contracts[id]
	if !ok || c.CompanyID != companyID {
		return contract.ErrContractNotFound
	}
	c.Status = status
	r.contracts[id] = c
	return nil
}

func (r *fakeContractRepo) AdvancePeriod(ctx context.Context, id string, payStart, payEnd time.Time) error {
	c, ok := r.contracts[id]
	if !ok {
		return contract.ErrContractNotFound
	}
	c.PayStart = payStart
	c.PayEnd = payEnd
	r.contracts[id] = c
	return nil
}

func (r *fakeContractRepo) SetPeriod(ctx context.Context, id string, companyID string, payStart, payEnd time.Time) error {
	c, ok := r.contracts[id]
	if !ok || c.CompanyID != companyID {
		return contract.ErrContractNotFound
	}
	c.PayStart = payStart
	c.PayEnd = payEnd
	r.contracts[id] = c
	return nil
}

func (r *fakeContractRepo) Delete(ctx context.Context, id string, companyID string) error {
	c, ok := r.contracts[id]
	if !ok || c.CompanyID != companyID {
		return contract.ErrContractNotFound
	}
	delete(r.contracts, id)
	return nil
}

// ========== SCHEDULE REPO ==========

type fakeScheduleRepo struct {
	schedules map[string]contract.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]contract.Schedule)}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, s contract.Schedule) (contract.Schedule, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.schedules[s.ID] = s
	return s, nil
}

func (r *fakeScheduleRepo) GetByContractID(ctx context.Context, contractID string) (contract.Schedule, error) {
	for _, s := range r.schedules {
		if s.ContractID == contractID {
			return s, nil
		}
	}
	return contract.Schedule{}, contract.ErrScheduleNotFound
}

func (r *fakeScheduleRepo) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	for _, s := range r.schedules {
		if s.Active && !s.NextFireAt.After(now) {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeScheduleRepo) GetDueForUpdate(ctx context.Context, id string, now time.Time) (contract.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok || !s.Active || s.NextFireAt.After(now) {
		return contract.Schedule{}, contract.ErrScheduleAlreadyFired
	}
	return s, nil
}

func (r *fakeScheduleRepo) Advance(ctx context.Context, id string, nextFireAt time.Time, firedAt time.Time) error {
	s, ok := r.schedules[id]
	if !ok {
		return contract.ErrScheduleNotFound
	}
	s.NextFireAt = nextFireAt
	s.LastFiredAt = &firedAt
	r.schedules[id] = s
	return nil
}

func (r *fakeScheduleRepo) SetActive(ctx context.Context, contractID string, active bool) error {
	for id, s := range r.schedules {
		if s.ContractID == contractID {
			s.Active = active
			r.schedules[id] = s
			return nil
		}
	}
	return contract.ErrScheduleNotFound
}

func (r *fakeScheduleRepo) SetNextFire(ctx context.Context, contractID string, nextFireAt time.Time) error {
	for id, s := range r.schedules {
		if s.ContractID == contractID {
			s.NextFireAt = nextFireAt
			r.schedules[id] = s
			return nil
		}
	}
	return contract.ErrScheduleNotFound
}

func (r *fakeScheduleRepo) UpdateCadence(ctx context.Context, upd contract.ScheduleUpdate) error {
	s, ok := r.schedules[upd.ID]
	if !ok {
		return contract.ErrScheduleNotFound
	}
	if upd.DayOfMonth != nil {
		s.DayOfMonth = *upd.DayOfMonth
	}
	if upd.LeadDays != nil {
		s.LeadDays = *upd.LeadDays
	}
	if upd.Cadence != nil {
		s.Cadence = *upd.Cadence
	}
	if upd.NextFireAt != nil {
		s.NextFireAt = *upd.NextFireAt
	}
	r.schedules[upd.ID] = s
	return nil
}

func (r *fakeScheduleRepo) Deactivate(ctx context.Context, id string) error {
	s, ok := r.schedules[id]
	if !ok {
		return contract.ErrScheduleNotFound
	}
	s.Active = false
	r.schedules[id] = s
	return nil
}

func (r *fakeScheduleRepo) DeleteByContractID(ctx context.Context, contractID string) error {
	for id, s := range r.schedules {
		if s.ContractID == contractID {
			delete(r.schedules, id)
		}
	}
	return nil
}

// ========== EMPLOYEE REPO ==========

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.employees[e.ID] = e
	return e, nil
}

func testInvoiceForContract(contractID, companyID string) billing.Invoice {
	return billing.Invoice{
		CompanyID:  companyID,
		ContractID: contractID,
		Kind:       billing.InvoiceKindEmployee,
		Amount:     decimal.NewFromInt(100),
		Currency:   "USD",
		Status:     billing.InvoiceStatusDraft,
		IssueDate:  time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
	}
}

// ========== INVOICE REPO ==========

type fakeInvoiceRepo struct {
	invoices map[string]billing.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[string]billing.Invoice)}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	for _, existing := range r.invoices {
		if existing.ContractID == inv.ContractID && existing.DueDate.Equal(inv.DueDate) {
			return billing.Invoice{}, billing.ErrInvoiceAlreadyExists
		}
	}
	inv.ID = uuid.NewString()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.invoices[inv.ID] = inv
	return inv, nil
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
