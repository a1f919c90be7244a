package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
	"github.com/paylane/payroll-backend-go/internal/pkg/email"
)

type invoiceService struct {
	invoiceRepo billing.InvoiceRepository
	companyRepo company.CompanyRepository
	emailSvc    email.EmailService
	clk         clock.Clock
	logger      *slog.Logger
}

// NewInvoiceService creates the invoice lifecycle service.
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	companyRepo company.CompanyRepository,
	emailSvc email.EmailService,
	clk clock.Clock,
	logger *slog.Logger,
) billing.InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		emailSvc:    emailSvc,
		clk:         clk,
		logger:      logger,
	}
}

func (s *invoiceService) Get(ctx context.Context, id string) (billing.InvoiceResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return billing.InvoiceResponse{}, err
	}

	inv, err := s.invoiceRepo.GetByID(ctx, id, companyID)
	if err == nil {
		return toInvoiceResponse(inv), nil
	}
	if !errors.Is(err, billing.ErrInvoiceNotFound) {
		return billing.InvoiceResponse{}, err
	}

	// Not the issuer; a fixed B2B recipient may still read the invoice
	// addressed to it.
	inv, anyErr := s.invoiceRepo.GetByIDAny(ctx, id)
	if anyErr != nil {
		return billing.InvoiceResponse{}, anyErr
	}
	if inv.ToCompanyID == nil || *inv.ToCompanyID != companyID {
		return billing.InvoiceResponse{}, billing.ErrInvoiceNotFound
	}

	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, filter billing.InvoiceFilter) (billing.ListInvoiceResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return billing.ListInvoiceResponse{}, err
	}

	invoices, total, err := s.invoiceRepo.List(ctx, companyID, filter)
	if err != nil {
		return billing.ListInvoiceResponse{}, err
	}

	data := make([]billing.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		data = append(data, toInvoiceResponse(inv))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	return billing.ListInvoiceResponse{
		Data:       data,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Send transitions a draft invoice to sent and notifies the recipient.
// Only the issuing company can send.
func (s *invoiceService) Send(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	inv, err := s.invoiceRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if inv.Status != billing.InvoiceStatusDraft {
		return billing.ErrInvalidInvoiceState
	}

	now := s.clk.Now()
	if err := s.invoiceRepo.UpdateStatus(ctx, id, companyID, billing.InvoiceStatusSent, now); err != nil {
		return err
	}

	s.notifyRecipient(ctx, inv)
	return nil
}

// Confirm transitions a sent invoice to confirmed. Employee invoices
// are confirmed by the issuer; B2B invoices by their recipient. A
// claimable B2B invoice (no fixed recipient) can be confirmed by any
// company, which is what claims it.
func (s *invoiceService) Confirm(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	inv, err := s.invoiceRepo.GetByIDAny(ctx, id)
	if err != nil {
		return err
	}

	switch inv.Kind {
	case billing.InvoiceKindEmployee:
		if inv.CompanyID != companyID {
			return billing.ErrInvoiceNotFound
		}
	case billing.InvoiceKindB2B:
		if inv.ToCompanyID != nil && *inv.ToCompanyID != companyID {
			return billing.ErrWrongRecipient
		}
	}

	if inv.Status != billing.InvoiceStatusSent {
		return billing.ErrInvalidInvoiceState
	}

	return s.invoiceRepo.UpdateStatus(ctx, id, inv.CompanyID, billing.InvoiceStatusConfirmed, s.clk.Now())
}

// notifyRecipient emails the invoice recipient. Failures are logged but
// never surfaced: the status transition already committed.
func (s *invoiceService) notifyRecipient(ctx context.Context, inv billing.Invoice) {
	if inv.EmployeeEmail == nil || inv.EmployeeName == nil {
		return
	}

	issuer, err := s.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		s.logger.Error("failed to load issuer for invoice notification",
			slog.String("invoice_id", inv.ID),
			slog.Any("error", err),
		)
		return
	}

	err = s.emailSvc.SendInvoiceIssued(
		*inv.EmployeeEmail,
		*inv.EmployeeName,
		issuer.Name,
		inv.Amount.StringFixed(2),
		inv.Currency,
		inv.DueDate.Format("2006-01-02"),
	)
	if err != nil {
		s.logger.Error("failed to send invoice notification",
			slog.String("invoice_id", inv.ID),
			slog.Any("error", err),
		)
	}
}

func toInvoiceResponse(inv billing.Invoice) billing.InvoiceResponse {
	resp := billing.InvoiceResponse{
		ID:           inv.ID,
		CompanyID:    inv.CompanyID,
		ContractID:   inv.ContractID,
		EmployeeID:   inv.EmployeeID,
		EmployeeName: inv.EmployeeName,
		ToCompanyID:  inv.ToCompanyID,
		Kind:         string(inv.Kind),
		Amount:       inv.Amount.StringFixed(2),
		Currency:     inv.Currency,
		Status:       string(inv.Status),
		IssueDate:    inv.IssueDate.Format("2006-01-02"),
		DueDate:      inv.DueDate.Format("2006-01-02"),
	}

	resp.SentAt = formatTimePtr(inv.SentAt)
	resp.ConfirmedAt = formatTimePtr(inv.ConfirmedAt)
	resp.PaidAt = formatTimePtr(inv.PaidAt)

	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
