package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus enum
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusPaused    ContractStatus = "paused"
	ContractStatusCompleted ContractStatus = "completed"
)

// ContractTerm enum
type ContractTerm string

const (
	ContractTermFixed     ContractTerm = "fixed"
	ContractTermPermanent ContractTerm = "permanent"
)

// Contract is an employment/billing agreement. At most one active
// contract may exist per employee at a time.
type Contract struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Amount      decimal.Decimal
	Currency    string
	Term        ContractTerm
	CycleMonths int
	Payday      int // day of month, 1-31
	JoinDate    time.Time
	PayStart    time.Time // current pay date
	PayEnd      time.Time // contracted period end = first pay date + cycle months
	B2B         bool
	ToCompanyID *string // fixed recipient for B2B invoicing; nil = claimable
	Status      ContractStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
}

// Schedule drives invoice generation for one contract. NextFireAt only
// ever moves forward; a fired instant is never reused.
type Schedule struct {
	ID          string
	ContractID  string
	Active      bool
	Cadence     string // label, e.g. "monthly", "quarterly"
	DayOfMonth  int
	LeadDays    int // days before the pay date an invoice must exist
	NextFireAt  time.Time
	LastFiredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CadenceLabel names a cycle length for display purposes.
func CadenceLabel(cycleMonths int) string {
	switch cycleMonths {
	case 1:
		return "monthly"
	case 3:
		return "quarterly"
	case 6:
		return "semiannual"
	case 12:
		return "annual"
	default:
		return "custom"
	}
}
