package contract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

type generatorService struct {
	contractRepo contract.ContractRepository
	scheduleRepo contract.ScheduleRepository
	invoiceRepo  billing.InvoiceRepository
	runTx        database.TxRunner
	logger       *slog.Logger
}

// NewGeneratorService creates the invoice generator.
func NewGeneratorService(
	contractRepo contract.ContractRepository,
	scheduleRepo contract.ScheduleRepository,
	invoiceRepo billing.InvoiceRepository,
	runTx database.TxRunner,
	logger *slog.Logger,
) contract.GeneratorService {
	return &generatorService{
		contractRepo: contractRepo,
		scheduleRepo: scheduleRepo,
		invoiceRepo:  invoiceRepo,
		runTx:        runTx,
		logger:       logger,
	}
}

// FireDueSchedules processes every due schedule in its own transaction,
// so one bad contract cannot block the rest of the run. Concurrent runs
// are safe: the row lock plus due re-check inside fireOne guarantees a
// schedule fires at most once per instant.
func (s *generatorService) FireDueSchedules(ctx context.Context, now time.Time) (contract.FireReport, error) {
	ids, err := s.scheduleRepo.ListDue(ctx, now)
	if err != nil {
		return contract.FireReport{}, err
	}

	report := contract.FireReport{Due: len(ids)}
	for _, id := range ids {
		generated, err := s.fireOne(ctx, id, now)
		switch {
		case errors.Is(err, contract.ErrScheduleAlreadyFired):
			report.Skipped++
		case err != nil:
			report.Failed++
			s.logger.Error("schedule firing failed",
				slog.String("schedule_id", id),
				slog.Any("error", err),
			)
		case generated:
			report.Generated++
		default:
			report.Skipped++
		}
	}

	if report.Due > 0 {
		s.logger.Info("invoice generation run finished",
			slog.Int("due", report.Due),
			slog.Int("generated", report.Generated),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed),
		)
	}

	return report, nil
}

func (s *generatorService) fireOne(ctx context.Context, scheduleID string, now time.Time) (bool, error) {
	generated := false
	err := s.runTx(ctx, func(txCtx context.Context) error {
		sched, err := s.scheduleRepo.GetDueForUpdate(txCtx, scheduleID, now)
		if err != nil {
			return err
		}

		c, err := s.contractRepo.GetByIDAny(txCtx, sched.ContractID)
		if err != nil {
			return err
		}

		// Paused and completed contracts keep inactive schedules; seeing
		// one here means the pair got out of sync, so repair it instead
		// of generating.
		if c.Status != contract.ContractStatusActive {
			return s.scheduleRepo.Deactivate(txCtx, sched.ID)
		}

		inv := billing.Invoice{
			CompanyID:  c.CompanyID,
			ContractID: c.ID,
			Kind:       billing.InvoiceKindEmployee,
			Amount:     c.Amount,
			Currency:   c.Currency,
			Status:     billing.InvoiceStatusDraft,
			IssueDate:  now,
			DueDate:    c.PayStart,
		}
		if c.B2B {
			inv.Kind = billing.InvoiceKindB2B
			inv.ToCompanyID = c.ToCompanyID
		} else {
			inv.EmployeeID = &c.EmployeeID
		}

		created, err := s.invoiceRepo.Create(txCtx, inv)
		switch {
		case errors.Is(err, billing.ErrInvoiceAlreadyExists):
			// Invoice for this due date already exists from an earlier
			// partial run; still advance so the schedule does not wedge.
		case err != nil:
			return err
		default:
			generated = true
			s.logger.Info("invoice generated",
				slog.String("invoice_id", created.ID),
				slog.String("contract_id", c.ID),
				slog.String("kind", string(created.Kind)),
				slog.Time("due_date", created.DueDate),
			)
		}

		newPay := advancePayDate(c.PayStart, c.CycleMonths, c.Payday)

		if c.Term == contract.ContractTermFixed && newPay.After(c.PayEnd) {
			if err := s.contractRepo.UpdateStatus(txCtx, c.ID, c.CompanyID, contract.ContractStatusCompleted); err != nil {
				return err
			}
			if err := s.scheduleRepo.Deactivate(txCtx, sched.ID); err != nil {
				return err
			}
			s.logger.Info("fixed-term contract completed",
				slog.String("contract_id", c.ID),
			)
			return nil
		}

		payEnd := c.PayEnd
		if c.Term == contract.ContractTermPermanent {
			payEnd = advancePayDate(newPay, c.CycleMonths, c.Payday)
		}
		if err := s.contractRepo.AdvancePeriod(txCtx, c.ID, newPay, payEnd); err != nil {
			return err
		}

		// The next fire instant derives from the new pay date, not from
		// now, so repeated cycles stay anchored on the payday.
		nextFire := newPay.AddDate(0, 0, -sched.LeadDays)
		return s.scheduleRepo.Advance(txCtx, sched.ID, nextFire, sched.NextFireAt)
	})
	return generated, err
}
