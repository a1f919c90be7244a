package contract

import "errors"

var (
	ErrContractNotFound     = errors.New("payroll contract not found")
	ErrActiveContractExists = errors.New("employee already has an active payroll contract")
	ErrScheduleNotFound     = errors.New("invoice schedule not found")
	ErrContractHasInvoices  = errors.New("contract has generated invoices and cannot be deleted")
	ErrContractNotPaused    = errors.New("contract is not paused")
	ErrContractNotActive    = errors.New("contract is not active")
	ErrContractCompleted    = errors.New("contract is completed")
	ErrEmployeeNotInCompany = errors.New("employee does not belong to this company")
	ErrScheduleAlreadyFired = errors.New("schedule already fired for this instant")
)
