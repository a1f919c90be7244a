package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paylane/payroll-backend-go/internal/config"
	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
	"github.com/paylane/payroll-backend-go/internal/pkg/email"
	"github.com/paylane/payroll-backend-go/internal/pkg/payslip"
	"github.com/paylane/payroll-backend-go/internal/pkg/xendit"
)

// PaymentGateway is the slice of the gateway client settlement needs.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, req xendit.CreatePaymentLinkRequest) (*xendit.PaymentLinkResponse, error)
}

type settlementService struct {
	billRepo    billing.BillRepository
	invoiceRepo billing.InvoiceRepository
	companyRepo company.CompanyRepository
	runTx       database.TxRunner
	gateway     PaymentGateway
	gatewayCfg  config.XenditConfig
	renderer    payslip.Renderer
	emailSvc    email.EmailService
	clk         clock.Clock
	logger      *slog.Logger
}

// NewSettlementService creates the batch settlement service.
func NewSettlementService(
	billRepo billing.BillRepository,
	invoiceRepo billing.InvoiceRepository,
	companyRepo company.CompanyRepository,
	runTx database.TxRunner,
	gateway PaymentGateway,
	gatewayCfg config.XenditConfig,
	renderer payslip.Renderer,
	emailSvc email.EmailService,
	clk clock.Clock,
	logger *slog.Logger,
) billing.SettlementService {
	return &settlementService{
		billRepo:    billRepo,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		runTx:       runTx,
		gateway:     gateway,
		gatewayCfg:  gatewayCfg,
		renderer:    renderer,
		emailSvc:    emailSvc,
		clk:         clk,
		logger:      logger,
	}
}

// PayBills applies one payment event to the whole batch. Every bill and
// its invoice flip to paid in a single transaction, or the batch is
// rejected untouched; a single id that is missing, unowned, or not
// payable fails the whole call.
// settlementTimeout bounds one settlement end to end, notifications
// included.
const settlementTimeout = 60 * time.Second

func (s *settlementService) PayBills(ctx context.Context, companyID string, billIDs []string, transactionHash string) (billing.SettlementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, settlementTimeout)
	defer cancel()

	ids := dedupe(billIDs)
	if len(ids) == 0 {
		return billing.SettlementResult{}, billing.ErrEmptyBatch
	}

	bills, err := s.loadBatch(ctx, ids, companyID)
	if err != nil {
		return billing.SettlementResult{}, err
	}

	total := decimal.Zero
	currency := bills[0].Invoice.Currency
	invoiceIDs := make([]string, 0, len(bills))
	for _, b := range bills {
		if b.Invoice.Currency != currency {
			return billing.SettlementResult{}, fmt.Errorf("%w: %s and %s", billing.ErrMixedCurrencies, currency, b.Invoice.Currency)
		}
		total = total.Add(b.Invoice.Amount)
		invoiceIDs = append(invoiceIDs, b.InvoiceID)
	}

	now := s.clk.Now()
	err = s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.billRepo.MarkPaid(txCtx, ids, now, transactionHash); err != nil {
			return err
		}
		return s.invoiceRepo.MarkPaid(txCtx, invoiceIDs, now)
	})
	if err != nil {
		return billing.SettlementResult{}, err
	}

	for _, b := range bills {
		if b.Invoice.Kind == billing.InvoiceKindB2B {
			s.logger.Info("b2b settlement",
				slog.String("bill_id", b.ID),
				slog.String("invoice_id", b.InvoiceID),
				slog.String("issuer_company_id", b.Invoice.CompanyID),
				slog.String("payer_company_id", b.CompanyID),
				slog.String("amount", b.Invoice.Amount.StringFixed(2)),
				slog.String("currency", b.Invoice.Currency),
				slog.String("transaction_hash", transactionHash),
			)
		}
	}

	// Payslip delivery runs after commit; a notification failure never
	// unwinds the settlement.
	s.deliverPayslips(ctx, bills, transactionHash)

	s.logger.Info("settlement committed",
		slog.String("company_id", companyID),
		slog.Int("bill_count", len(bills)),
		slog.String("total_amount", total.StringFixed(2)),
		slog.String("currency", currency),
		slog.String("transaction_hash", transactionHash),
	)

	return billing.SettlementResult{
		TotalAmount: total,
		Currency:    currency,
		BillCount:   len(bills),
		PaidAt:      now,
	}, nil
}

// CreatePaymentLink exposes a payable batch as a hosted payment page.
// The bill ids ride the link metadata so the gateway webhook can settle
// the same batch when the page is paid.
func (s *settlementService) CreatePaymentLink(ctx context.Context, companyID string, req billing.CreatePaymentLinkRequest) (billing.PaymentLinkResponse, error) {
	if err := req.Validate(); err != nil {
		return billing.PaymentLinkResponse{}, err
	}

	ids := dedupe(req.BillIDs)
	bills, err := s.loadBatch(ctx, ids, companyID)
	if err != nil {
		return billing.PaymentLinkResponse{}, err
	}

	total := decimal.Zero
	currency := bills[0].Invoice.Currency
	items := make([]xendit.PaymentLinkItem, 0, len(bills))
	for _, b := range bills {
		if b.Invoice.Currency != currency {
			return billing.PaymentLinkResponse{}, fmt.Errorf("%w: %s and %s", billing.ErrMixedCurrencies, currency, b.Invoice.Currency)
		}
		total = total.Add(b.Invoice.Amount)

		name := "Invoice " + b.InvoiceID
		if b.Invoice.EmployeeName != nil {
			name = fmt.Sprintf("Payroll %s %s", *b.Invoice.EmployeeName, b.Invoice.DueDate.Format("2006-01"))
		}
		items = append(items, xendit.PaymentLinkItem{
			Name:     name,
			Quantity: 1,
			Price:    b.Invoice.Amount,
		})
	}

	externalID := "settlement-" + uuid.NewString()
	link, err := s.gateway.CreatePaymentLink(ctx, xendit.CreatePaymentLinkRequest{
		ExternalID:         externalID,
		Amount:             total,
		Description:        fmt.Sprintf("Settlement of %d bills", len(bills)),
		PayerEmail:         req.PayerEmail,
		Currency:           currency,
		Duration:           s.gatewayCfg.PaymentExpiry * 3600,
		SuccessRedirectURL: s.gatewayCfg.SuccessRedirect,
		FailureRedirectURL: s.gatewayCfg.FailureRedirect,
		Items:              items,
		Metadata: map[string]string{
			"company_id": companyID,
			"bill_ids":   strings.Join(ids, ","),
		},
	})
	if err != nil {
		return billing.PaymentLinkResponse{}, fmt.Errorf("failed to create payment link: %w", err)
	}

	s.logger.Info("payment link created",
		slog.String("company_id", companyID),
		slog.String("external_id", externalID),
		slog.Int("bill_count", len(bills)),
		slog.String("total_amount", total.StringFixed(2)),
	)

	return billing.PaymentLinkResponse{
		ExternalID: link.ExternalID,
		PaymentURL: link.PaymentURL,
		Amount:     total.StringFixed(2),
		ExpiresAt:  link.ExpiryDate.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// loadBatch loads the payable bills for ids and rejects partial
// matches, which is what makes settlement all-or-nothing.
func (s *settlementService) loadBatch(ctx context.Context, ids []string, companyID string) ([]billing.Bill, error) {
	if len(ids) == 0 {
		return nil, billing.ErrEmptyBatch
	}

	bills, err := s.billRepo.ListPayableByIDs(ctx, ids, companyID)
	if err != nil {
		return nil, err
	}
	if len(bills) != len(ids) {
		return nil, billing.ErrBillNotFound
	}
	for _, b := range bills {
		if b.Invoice == nil {
			return nil, fmt.Errorf("bill %s loaded without its invoice", b.ID)
		}
	}

	return bills, nil
}

func (s *settlementService) deliverPayslips(ctx context.Context, bills []billing.Bill, transactionHash string) {
	for _, b := range bills {
		inv := b.Invoice
		if inv.Kind != billing.InvoiceKindEmployee || inv.EmployeeEmail == nil || inv.EmployeeName == nil {
			continue
		}

		issuer, err := s.companyRepo.GetByID(ctx, inv.CompanyID)
		if err != nil {
			s.logger.Error("failed to load issuer for payslip",
				slog.String("bill_id", b.ID),
				slog.Any("error", err),
			)
			continue
		}

		period := inv.DueDate.Format("2006-01")
		doc, err := s.renderer.Render(payslip.Data{
			EmployeeName:    *inv.EmployeeName,
			CompanyName:     issuer.Name,
			Period:          period,
			PayDate:         inv.DueDate.Format("2006-01-02"),
			Amount:          inv.Amount.StringFixed(2),
			Currency:        inv.Currency,
			TransactionHash: transactionHash,
		})
		if err != nil {
			s.logger.Error("failed to render payslip",
				slog.String("bill_id", b.ID),
				slog.Any("error", err),
			)
			continue
		}

		err = s.emailSvc.SendPayslip(
			*inv.EmployeeEmail,
			*inv.EmployeeName,
			issuer.Name,
			period,
			inv.Amount.StringFixed(2),
			inv.Currency,
			doc,
		)
		if err != nil {
			s.logger.Error("failed to send payslip",
				slog.String("bill_id", b.ID),
				slog.Any("error", err),
			)
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

