package contract

import (
	"time"

	"github.com/paylane/payroll-backend-go/internal/pkg/validator"
)

// ========== CONTRACT DTOs ==========

type CreateContractRequest struct {
	EmployeeID  string  `json:"employee_id"`
	Amount      string  `json:"amount"` // decimal string, e.g. "2500.00"
	Currency    string  `json:"currency,omitempty"`
	Term        string  `json:"term"` // "fixed" or "permanent"
	CycleMonths int     `json:"cycle_months"`
	Payday      int     `json:"payday"`
	JoinDate    string  `json:"join_date"` // YYYY-MM-DD
	LeadDays    int     `json:"lead_days"`
	B2B         bool    `json:"b2b,omitempty"`
	ToCompanyID *string `json:"to_company_id,omitempty"`
}

func (r *CreateContractRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !validator.IsValidAmount(r.Amount) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be a positive decimal string"})
	}
	if r.Currency != "" && !validator.IsValidCurrency(r.Currency) {
		errs = append(errs, validator.ValidationError{Field: "currency", Message: "must be a 3-letter code"})
	}
	if r.Term != string(ContractTermFixed) && r.Term != string(ContractTermPermanent) {
		errs = append(errs, validator.ValidationError{Field: "term", Message: "must be 'fixed' or 'permanent'"})
	}
	if r.CycleMonths < 1 {
		errs = append(errs, validator.ValidationError{Field: "cycle_months", Message: "must be at least 1"})
	}
	if !validator.IsValidDayOfMonth(r.Payday) {
		errs = append(errs, validator.ValidationError{Field: "payday", Message: "must be between 1 and 31"})
	}
	if !validator.IsValidDate(r.JoinDate) {
		errs = append(errs, validator.ValidationError{Field: "join_date", Message: "must be YYYY-MM-DD"})
	}
	if r.LeadDays < 0 || r.LeadDays > 28 {
		errs = append(errs, validator.ValidationError{Field: "lead_days", Message: "must be between 0 and 28"})
	}
	if r.ToCompanyID != nil && !r.B2B {
		errs = append(errs, validator.ValidationError{Field: "to_company_id", Message: "only valid for b2b contracts"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateContractRequest struct {
	ID          string
	Amount      *string `json:"amount,omitempty"`
	CycleMonths *int    `json:"cycle_months,omitempty"`
	Payday      *int    `json:"payday,omitempty"`
	LeadDays    *int    `json:"lead_days,omitempty"`
}

func (r *UpdateContractRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Amount != nil && !validator.IsValidAmount(*r.Amount) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be a positive decimal string"})
	}
	if r.CycleMonths != nil && *r.CycleMonths < 1 {
		errs = append(errs, validator.ValidationError{Field: "cycle_months", Message: "must be at least 1"})
	}
	if r.Payday != nil && !validator.IsValidDayOfMonth(*r.Payday) {
		errs = append(errs, validator.ValidationError{Field: "payday", Message: "must be between 1 and 31"})
	}
	if r.LeadDays != nil && (*r.LeadDays < 0 || *r.LeadDays > 28) {
		errs = append(errs, validator.ValidationError{Field: "lead_days", Message: "must be between 0 and 28"})
	}
	if r.Amount == nil && r.CycleMonths == nil && r.Payday == nil && r.LeadDays == nil {
		errs = append(errs, validator.ValidationError{Field: "body", Message: "no updatable fields provided"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ContractResponse struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	Amount       string  `json:"amount"`
	Currency     string  `json:"currency"`
	Term         string  `json:"term"`
	CycleMonths  int     `json:"cycle_months"`
	Payday       int     `json:"payday"`
	JoinDate     string  `json:"join_date"`
	PayStart     string  `json:"pay_start"`
	PayEnd       string  `json:"pay_end"`
	B2B          bool    `json:"b2b"`
	ToCompanyID  *string `json:"to_company_id,omitempty"`
	Status       string  `json:"status"`

	Schedule *ScheduleResponse `json:"schedule,omitempty"`
}

type ScheduleResponse struct {
	ID          string  `json:"id"`
	Active      bool    `json:"active"`
	Cadence     string  `json:"cadence"`
	DayOfMonth  int     `json:"day_of_month"`
	LeadDays    int     `json:"lead_days"`
	NextFireAt  string  `json:"next_fire_at"`
	LastFiredAt *string `json:"last_fired_at,omitempty"`
}

type ContractFilter struct {
	Status     *ContractStatus
	EmployeeID *string
	Page       int
	Limit      int
}

type ListContractResponse struct {
	Data       []ContractResponse `json:"data"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// FireReport summarizes one run of the invoice generator.
type FireReport struct {
	Due       int
	Generated int
	Skipped   int
	Failed    int
}

// ScheduleUpdate carries recomputed cadence fields to the repository.
// Nil fields are left untouched so partial contract edits do not
// clobber unrelated schedule state.
type ScheduleUpdate struct {
	ID         string
	DayOfMonth *int
	LeadDays   *int
	Cadence    *string
	NextFireAt *time.Time
}
