package contract

import (
	"context"
	"time"
)

// ContractService owns the payroll contract lifecycle and keeps the
// invoice schedule consistent with contract edits.
type ContractService interface {
	Create(ctx context.Context, req CreateContractRequest) (ContractResponse, error)
	Get(ctx context.Context, id string) (ContractResponse, error)
	List(ctx context.Context, filter ContractFilter) (ListContractResponse, error)
	Update(ctx context.Context, req UpdateContractRequest) (ContractResponse, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// GeneratorService turns due schedule entries into invoices. Invoked by
// the periodic trigger; safe to run concurrently from multiple workers.
type GeneratorService interface {
	FireDueSchedules(ctx context.Context, now time.Time) (FireReport, error)
}
