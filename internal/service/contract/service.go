package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/domain/employee"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

const defaultCurrency = "USD"

type contractService struct {
	contractRepo contract.ContractRepository
	scheduleRepo contract.ScheduleRepository
	employeeRepo employee.EmployeeRepository
	invoiceRepo  billing.InvoiceRepository
	runTx        database.TxRunner
	clk          clock.Clock
	logger       *slog.Logger
}

// NewContractService creates the payroll contract service.
func NewContractService(
	contractRepo contract.ContractRepository,
	scheduleRepo contract.ScheduleRepository,
	employeeRepo employee.EmployeeRepository,
	invoiceRepo billing.InvoiceRepository,
	runTx database.TxRunner,
	clk clock.Clock,
	logger *slog.Logger,
) contract.ContractService {
	return &contractService{
		contractRepo: contractRepo,
		scheduleRepo: scheduleRepo,
		employeeRepo: employeeRepo,
		invoiceRepo:  invoiceRepo,
		runTx:        runTx,
		clk:          clk,
		logger:       logger,
	}
}

func (s *contractService) Create(ctx context.Context, req contract.CreateContractRequest) (contract.ContractResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return contract.ContractResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return contract.ContractResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return contract.ContractResponse{}, contract.ErrEmployeeNotInCompany
		}
		return contract.ContractResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	_, err = s.contractRepo.GetActiveByEmployee(ctx, req.EmployeeID, companyID)
	if err == nil {
		return contract.ContractResponse{}, contract.ErrActiveContractExists
	}
	if !errors.Is(err, contract.ErrContractNotFound) {
		return contract.ContractResponse{}, fmt.Errorf("failed to check active contract: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return contract.ContractResponse{}, fmt.Errorf("failed to parse amount: %w", err)
	}

	joinDate, err := time.Parse("2006-01-02", req.JoinDate)
	if err != nil {
		return contract.ContractResponse{}, fmt.Errorf("failed to parse join date: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.clk.Now()
	payStart := nextPayDate(now, req.Payday)
	payEnd := advancePayDate(payStart, req.CycleMonths, req.Payday)
	nextFire := fireInstant(payStart, req.LeadDays, now)

	newContract := contract.Contract{
		CompanyID:   companyID,
		EmployeeID:  req.EmployeeID,
		Amount:      amount,
		Currency:    currency,
		Term:        contract.ContractTerm(req.Term),
		CycleMonths: req.CycleMonths,
		Payday:      req.Payday,
		JoinDate:    joinDate,
		PayStart:    payStart,
		PayEnd:      payEnd,
		B2B:         req.B2B,
		ToCompanyID: req.ToCompanyID,
		Status:      contract.ContractStatusActive,
	}

	var created contract.Contract
	var sched contract.Schedule
	err = s.runTx(ctx, func(txCtx context.Context) error {
		created, err = s.contractRepo.Create(txCtx, newContract)
		if err != nil {
			return err
		}

		sched, err = s.scheduleRepo.Create(txCtx, contract.Schedule{
			ContractID: created.ID,
			Active:     true,
			Cadence:    contract.CadenceLabel(req.CycleMonths),
			DayOfMonth: req.Payday,
			LeadDays:   req.LeadDays,
			NextFireAt: nextFire,
		})
		return err
	})
	if err != nil {
		return contract.ContractResponse{}, err
	}

	s.logger.Info("contract created",
		slog.String("contract_id", created.ID),
		slog.String("employee_id", created.EmployeeID),
		slog.Time("pay_start", payStart),
		slog.Time("next_fire_at", nextFire),
	)

	created.EmployeeName = &emp.FullName
	return toContractResponse(created, &sched), nil
}

func (s *contractService) Get(ctx context.Context, id string) (contract.ContractResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return contract.ContractResponse{}, err
	}

	c, err := s.contractRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return contract.ContractResponse{}, err
	}

	sched, err := s.scheduleRepo.GetByContractID(ctx, c.ID)
	if err != nil {
		if errors.Is(err, contract.ErrScheduleNotFound) {
			return toContractResponse(c, nil), nil
		}
		return contract.ContractResponse{}, err
	}

	return toContractResponse(c, &sched), nil
}

func (s *contractService) List(ctx context.Context, filter contract.ContractFilter) (contract.ListContractResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return contract.ListContractResponse{}, err
	}

	contracts, total, err := s.contractRepo.List(ctx, companyID, filter)
	if err != nil {
		return contract.ListContractResponse{}, err
	}

	data := make([]contract.ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		data = append(data, toContractResponse(c, nil))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	return contract.ListContractResponse{
		Data:       data,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *contractService) Update(ctx context.Context, req contract.UpdateContractRequest) (contract.ContractResponse, error) {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return contract.ContractResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return contract.ContractResponse{}, err
	}

	c, err := s.contractRepo.GetByID(ctx, req.ID, companyID)
	if err != nil {
		return contract.ContractResponse{}, err
	}
	if c.Status == contract.ContractStatusCompleted {
		return contract.ContractResponse{}, contract.ErrContractCompleted
	}

	sched, err := s.scheduleRepo.GetByContractID(ctx, c.ID)
	if err != nil {
		return contract.ContractResponse{}, err
	}

	now := s.clk.Now()

	payday := c.Payday
	if req.Payday != nil {
		payday = *req.Payday
	}
	cycle := c.CycleMonths
	if req.CycleMonths != nil {
		cycle = *req.CycleMonths
	}
	leadDays := sched.LeadDays
	if req.LeadDays != nil {
		leadDays = *req.LeadDays
	}

	upd := contract.ScheduleUpdate{ID: sched.ID, LeadDays: req.LeadDays}

	// A payday change resets the upcoming pay date to the new day's
	// next-month occurrence; a cycle change keeps the pay date and only
	// stretches the period. Either way the fire instant follows.
	payStart := c.PayStart
	repoint := false
	if req.Payday != nil && *req.Payday != c.Payday {
		payStart = nextPayDate(now, payday)
		upd.DayOfMonth = req.Payday
		repoint = true
	}
	if req.CycleMonths != nil && *req.CycleMonths != c.CycleMonths {
		label := contract.CadenceLabel(cycle)
		upd.Cadence = &label
		repoint = true
	}
	if repoint || req.LeadDays != nil {
		nextFire := fireInstant(payStart, leadDays, now)
		upd.NextFireAt = &nextFire
	}

	err = s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.Update(txCtx, companyID, req); err != nil {
			return err
		}
		if repoint {
			payEnd := advancePayDate(payStart, cycle, payday)
			if err := s.contractRepo.SetPeriod(txCtx, c.ID, companyID, payStart, payEnd); err != nil {
				return err
			}
		}
		if upd.DayOfMonth != nil || upd.LeadDays != nil || upd.Cadence != nil || upd.NextFireAt != nil {
			return s.scheduleRepo.UpdateCadence(txCtx, upd)
		}
		return nil
	})
	if err != nil {
		return contract.ContractResponse{}, err
	}

	return s.Get(ctx, req.ID)
}

func (s *contractService) Pause(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	c, err := s.contractRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if c.Status != contract.ContractStatusActive {
		return contract.ErrContractNotActive
	}

	return s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.UpdateStatus(txCtx, id, companyID, contract.ContractStatusPaused); err != nil {
			return err
		}
		return s.scheduleRepo.SetActive(txCtx, id, false)
	})
}

func (s *contractService) Resume(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	c, err := s.contractRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if c.Status != contract.ContractStatusPaused {
		return contract.ErrContractNotPaused
	}

	sched, err := s.scheduleRepo.GetByContractID(ctx, id)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	return s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.UpdateStatus(txCtx, id, companyID, contract.ContractStatusActive); err != nil {
			return err
		}
		if err := s.scheduleRepo.SetActive(txCtx, id, true); err != nil {
			return err
		}
		// A fire instant that elapsed during the pause rolls forward to
		// the next payday occurrence instead of firing retroactively.
		if !sched.NextFireAt.After(now) {
			rolled := nextOccurrence(now, sched.DayOfMonth)
			if err := s.scheduleRepo.SetNextFire(txCtx, id, rolled); err != nil {
				return err
			}
			s.logger.Info("schedule rolled forward on resume",
				slog.String("contract_id", id),
				slog.Time("next_fire_at", rolled),
			)
		}
		return nil
	})
}

func (s *contractService) Delete(ctx context.Context, id string) error {
	companyID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := s.contractRepo.GetByID(ctx, id, companyID); err != nil {
		return err
	}

	hasInvoices, err := s.invoiceRepo.ExistsByContract(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check contract invoices: %w", err)
	}
	if hasInvoices {
		return contract.ErrContractHasInvoices
	}

	return s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.scheduleRepo.DeleteByContractID(txCtx, id); err != nil {
			return err
		}
		return s.contractRepo.Delete(txCtx, id, companyID)
	})
}

func toContractResponse(c contract.Contract, sched *contract.Schedule) contract.ContractResponse {
	resp := contract.ContractResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		EmployeeID:   c.EmployeeID,
		EmployeeName: c.EmployeeName,
		Amount:       c.Amount.StringFixed(2),
		Currency:     c.Currency,
		Term:         string(c.Term),
		CycleMonths:  c.CycleMonths,
		Payday:       c.Payday,
		JoinDate:     c.JoinDate.Format("2006-01-02"),
		PayStart:     c.PayStart.Format("2006-01-02"),
		PayEnd:       c.PayEnd.Format("2006-01-02"),
		B2B:          c.B2B,
		ToCompanyID:  c.ToCompanyID,
		Status:       string(c.Status),
	}

	if sched != nil {
		sr := contract.ScheduleResponse{
			ID:         sched.ID,
			Active:     sched.Active,
			Cadence:    sched.Cadence,
			DayOfMonth: sched.DayOfMonth,
			LeadDays:   sched.LeadDays,
			NextFireAt: sched.NextFireAt.Format(time.RFC3339),
		}
		if sched.LastFiredAt != nil {
			fired := sched.LastFiredAt.Format(time.RFC3339)
			sr.LastFiredAt = &fired
		}
		resp.Schedule = &sr
	}

	return resp
}
