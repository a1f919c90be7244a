package contract

import (
	"context"
	"time"
)

// ContractRepository defines data access for payroll contracts.
// All methods include companyID to prevent cross-company data access.
type ContractRepository interface {
	Create(ctx context.Context, c Contract) (Contract, error)
	GetByID(ctx context.Context, id string, companyID string) (Contract, error)
	// GetByIDAny fetches without company scoping; used by the invoice
	// generator, which runs outside a request context.
	GetByIDAny(ctx context.Context, id string) (Contract, error)
	GetActiveByEmployee(ctx context.Context, employeeID string, companyID string) (Contract, error)
	List(ctx context.Context, companyID string, filter ContractFilter) ([]Contract, int64, error)
	Update(ctx context.Context, companyID string, req UpdateContractRequest) error
	UpdateStatus(ctx context.Context, id string, companyID string, status ContractStatus) error
	// AdvancePeriod moves the contract's current pay date (and, for
	// permanent contracts, its rolling period end) after a firing.
	AdvancePeriod(ctx context.Context, id string, payStart, payEnd time.Time) error
	SetPeriod(ctx context.Context, id string, companyID string, payStart, payEnd time.Time) error
	Delete(ctx context.Context, id string, companyID string) error
}

// ScheduleRepository defines data access for invoice schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, s Schedule) (Schedule, error)
	GetByContractID(ctx context.Context, contractID string) (Schedule, error)
	// ListDue returns ids of active schedules with next_fire_at <= now.
	ListDue(ctx context.Context, now time.Time) ([]string, error)
	// GetDueForUpdate re-fetches a due schedule with a row lock inside
	// the caller's transaction. Returns ErrScheduleAlreadyFired when the
	// schedule is no longer due, which is how a concurrent firing is
	// detected.
	GetDueForUpdate(ctx context.Context, id string, now time.Time) (Schedule, error)
	// Advance moves next_fire_at forward and records the fired instant.
	Advance(ctx context.Context, id string, nextFireAt time.Time, firedAt time.Time) error
	SetActive(ctx context.Context, contractID string, active bool) error
	SetNextFire(ctx context.Context, contractID string, nextFireAt time.Time) error
	UpdateCadence(ctx context.Context, upd ScheduleUpdate) error
	Deactivate(ctx context.Context, id string) error
	DeleteByContractID(ctx context.Context, contractID string) error
}
