package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
)

type billService struct {
	billRepo    billing.BillRepository
	invoiceRepo billing.InvoiceRepository
	clk         clock.Clock
	logger      *slog.Logger
}

// NewBillService creates the bill lifecycle service.
func NewBillService(
	billRepo billing.BillRepository,
	invoiceRepo billing.InvoiceRepository,
	clk clock.Clock,
	logger *slog.Logger,
) billing.BillService {
	return &billService{
		billRepo:    billRepo,
		invoiceRepo: invoiceRepo,
		clk:         clk,
		logger:      logger,
	}
}

// CreateFromInvoice opens a bill for a confirmed invoice. The bill is
// owned by the company that must pay: the issuer for employee
// invoices, the recipient for B2B ones. A claimable B2B invoice is
// claimed by whoever bills it first.
func (s *billService) CreateFromInvoice(ctx context.Context, req billing.CreateBillRequest) (billing.BillResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return billing.BillResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return billing.BillResponse{}, err
	}

	inv, err := s.invoiceRepo.GetByIDAny(ctx, req.InvoiceID)
	if err != nil {
		return billing.BillResponse{}, err
	}

	switch inv.Kind {
	case billing.InvoiceKindEmployee:
		if inv.CompanyID != companyID {
			return billing.BillResponse{}, billing.ErrInvoiceNotFound
		}
	case billing.InvoiceKindB2B:
		if inv.ToCompanyID != nil && *inv.ToCompanyID != companyID {
			return billing.BillResponse{}, billing.ErrWrongRecipient
		}
	}

	if inv.Status != billing.InvoiceStatusConfirmed {
		return billing.BillResponse{}, billing.ErrInvoiceNotConfirmed
	}

	created, err := s.billRepo.Create(ctx, billing.Bill{
		CompanyID: companyID,
		InvoiceID: inv.ID,
		Status:    billing.BillStatusPending,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return billing.BillResponse{}, err
	}

	s.logger.Info("bill created",
		slog.String("bill_id", created.ID),
		slog.String("invoice_id", inv.ID),
		slog.String("company_id", companyID),
	)

	created.Invoice = &inv
	return toBillResponse(created), nil
}

func (s *billService) Get(ctx context.Context, id string) (billing.BillResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return billing.BillResponse{}, err
	}

	b, err := s.billRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return billing.BillResponse{}, err
	}

	return toBillResponse(b), nil
}

func (s *billService) List(ctx context.Context, filter billing.BillFilter) (billing.ListBillResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return billing.ListBillResponse{}, err
	}

	bills, total, err := s.billRepo.List(ctx, companyID, filter)
	if err != nil {
		return billing.ListBillResponse{}, err
	}

	data := make([]billing.BillResponse, 0, len(bills))
	for _, b := range bills {
		data = append(data, toBillResponse(b))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	return billing.ListBillResponse{
		Data:       data,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// Cancel voids a bill that has not been paid. Paid bills are immutable.
func (s *billService) Cancel(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	b, err := s.billRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}

	switch b.Status {
	case billing.BillStatusPaid:
		return billing.ErrBillAlreadyPaid
	case billing.BillStatusCancelled:
		return nil
	}

	return s.billRepo.UpdateStatus(ctx, id, companyID, billing.BillStatusCancelled)
}

// MarkOverdueBills flips pending bills past their invoice due date to
// overdue. Invoked by the periodic trigger; repeat runs are no-ops.
func (s *billService) MarkOverdueBills(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.billRepo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Info("bills marked overdue",
			slog.Int64("count", n),
			slog.Time("as_of", asOf),
		)
	}

	return n, nil
}

func toBillResponse(b billing.Bill) billing.BillResponse {
	resp := billing.BillResponse{
		ID:              b.ID,
		CompanyID:       b.CompanyID,
		InvoiceID:       b.InvoiceID,
		Status:          string(b.Status),
		PaidAt:          formatTimePtr(b.PaidAt),
		TransactionHash: b.TransactionHash,
		Metadata:        b.Metadata,
	}

	if due, ok := b.DueDate(); ok {
		formatted := due.Format("2006-01-02")
		resp.DueDate = &formatted
	}
	if b.Invoice != nil {
		inv := toInvoiceResponse(*b.Invoice)
		resp.Invoice = &inv
	}

	return resp
}
