package response

import (
	"errors"
	"net/http"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/domain/employee"
	"github.com/paylane/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Company / employee domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Contract domain errors
	case errors.Is(err, contract.ErrContractNotFound):
		NotFound(w, "Contract not found")
	case errors.Is(err, contract.ErrScheduleNotFound):
		NotFound(w, "Schedule not found")
	case errors.Is(err, contract.ErrActiveContractExists):
		Conflict(w, "Employee already has an active contract")
	case errors.Is(err, contract.ErrContractHasInvoices):
		Conflict(w, "Contract has generated invoices and cannot be deleted")
	case errors.Is(err, contract.ErrContractNotPaused):
		Conflict(w, "Contract is not paused")
	case errors.Is(err, contract.ErrContractNotActive):
		Conflict(w, "Contract is not active")
	case errors.Is(err, contract.ErrContractCompleted):
		Conflict(w, "Contract has completed")
	case errors.Is(err, contract.ErrEmployeeNotInCompany):
		NotFound(w, "Employee not found in this company")

	// Billing domain errors
	case errors.Is(err, billing.ErrInvoiceNotFound):
		NotFound(w, "Invoice not found")
	case errors.Is(err, billing.ErrInvoiceNotConfirmed):
		Conflict(w, "Invoice is not confirmed")
	case errors.Is(err, billing.ErrInvoiceAlreadyExists):
		Conflict(w, "Invoice already generated for this period")
	case errors.Is(err, billing.ErrInvalidInvoiceState):
		Conflict(w, "Operation invalid for current invoice status")
	case errors.Is(err, billing.ErrBillNotFound):
		NotFound(w, "Bill not found")
	case errors.Is(err, billing.ErrBillAlreadyExists):
		Conflict(w, "Bill already exists for this invoice")
	case errors.Is(err, billing.ErrBillAlreadyPaid):
		Conflict(w, "Bill already paid")
	case errors.Is(err, billing.ErrBillNotPayable):
		Conflict(w, "Bill is not in a payable state")
	case errors.Is(err, billing.ErrWrongRecipient):
		Forbidden(w, "Invoice is addressed to a different company")
	case errors.Is(err, billing.ErrEmptyBatch):
		BadRequest(w, "Settlement batch is empty", nil)
	case errors.Is(err, billing.ErrMixedCurrencies):
		BadRequest(w, "Settlement batch mixes currencies", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
