package billing

import "errors"

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceNotConfirmed  = errors.New("invoice is not confirmed")
	ErrInvoiceAlreadyExists = errors.New("invoice already generated for this period")
	ErrInvalidInvoiceState  = errors.New("operation invalid for current invoice status")
	ErrBillNotFound         = errors.New("bill not found")
	ErrBillAlreadyExists    = errors.New("bill already exists for this invoice")
	ErrBillAlreadyPaid      = errors.New("bill already paid and is immutable")
	ErrBillNotPayable       = errors.New("bill is not in a payable state")
	ErrWrongRecipient       = errors.New("invoice is addressed to a different company")
	ErrEmptyBatch           = errors.New("settlement batch is empty")
	ErrMixedCurrencies      = errors.New("settlement batch mixes currencies")
)
