package cron

import (
	"context"
	"time"

	"github.com/paylane/payroll-backend-go/internal/config"
	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
)

// RegisterBillingJobs wires the periodic billing work onto the
// scheduler: invoice generation for due schedules and the overdue
// sweep.
func RegisterBillingJobs(
	s *Scheduler,
	cfg config.BillingConfig,
	generator contract.GeneratorService,
	bills billing.BillService,
) {
	s.AddJob("fire_due_schedules", cfg.FireInterval, func(ctx context.Context, now time.Time) error {
		_, err := generator.FireDueSchedules(ctx, now)
		return err
	})

	s.AddJob("mark_overdue_bills", cfg.OverdueInterval, func(ctx context.Context, now time.Time) error {
		_, err := bills.MarkOverdueBills(ctx, now)
		return err
	})
}
