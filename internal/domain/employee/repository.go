package employee

import "context"

// EmployeeRepository exposes the directory lookups the billing core
// needs. All methods are scoped by companyID to prevent cross-company
// data access.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
}
