package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/contract"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type contractRepository struct {
	db *database.DB
}

func NewContractRepository(db *database.DB) contract.ContractRepository {
	return &contractRepository{db: db}
}

const contractColumns = `
	c.id, c.company_id, c.employee_id, c.amount, c.currency, c.term,
	c.cycle_months, c.payday, c.join_date, c.pay_start, c.pay_end,
	c.b2b, c.to_company_id, c.status, c.created_at, c.updated_at
`

func scanContract(row pgx.Row) (contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.EmployeeID, &c.Amount, &c.Currency, &c.Term,
		&c.CycleMonths, &c.Payday, &c.JoinDate, &c.PayStart, &c.PayEnd,
		&c.B2B, &c.ToCompanyID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *contractRepository) Create(ctx context.Context, c contract.Contract) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_contracts (
			company_id, employee_id, amount, currency, term, cycle_months,
			payday, join_date, pay_start, pay_end, b2b, to_company_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, company_id, employee_id, amount, currency, term,
			cycle_months, payday, join_date, pay_start, pay_end,
			b2b, to_company_id, status, created_at, updated_at
	`

	var created contract.Contract
	err := q.QueryRow(ctx, query,
		c.CompanyID, c.EmployeeID, c.Amount, c.Currency, c.Term, c.CycleMonths,
		c.Payday, c.JoinDate, c.PayStart, c.PayEnd, c.B2B, c.ToCompanyID, c.Status,
	).Scan(
		&created.ID, &created.CompanyID, &created.EmployeeID, &created.Amount, &created.Currency,
		&created.Term, &created.CycleMonths, &created.Payday, &created.JoinDate, &created.PayStart,
		&created.PayEnd, &created.B2B, &created.ToCompanyID, &created.Status,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uq_active_contract_per_employee") {
			return contract.Contract{}, contract.ErrActiveContractExists
		}
		return contract.Contract{}, fmt.Errorf("failed to create contract: %w", err)
	}

	return created, nil
}

func (r *contractRepository) GetByID(ctx context.Context, id string, companyID string) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + contractColumns + `, e.full_name
		FROM payroll_contracts c
		LEFT JOIN employees e ON e.id = c.employee_id
		WHERE c.id = $1 AND c.company_id = $2
	`

	var c contract.Contract
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&c.ID, &c.CompanyID, &c.EmployeeID, &c.Amount, &c.Currency, &c.Term,
		&c.CycleMonths, &c.Payday, &c.JoinDate, &c.PayStart, &c.PayEnd,
		&c.B2B, &c.ToCompanyID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		&c.EmployeeName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.Contract{}, contract.ErrContractNotFound
		}
		return contract.Contract{}, fmt.Errorf("failed to get contract: %w", err)
	}

	return c, nil
}

func (r *contractRepository) GetByIDAny(ctx context.Context, id string) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + contractColumns + `
		FROM payroll_contracts c
		WHERE c.id = $1
	`

	c, err := scanContract(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.Contract{}, contract.ErrContractNotFound
		}
		return contract.Contract{}, fmt.Errorf("failed to get contract: %w", err)
	}

	return c, nil
}

func (r *contractRepository) GetActiveByEmployee(ctx context.Context, employeeID string, companyID string) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + contractColumns + `
		FROM payroll_contracts c
		WHERE c.employee_id = $1 AND c.company_id = $2 AND c.status = 'active'
	`

	c, err := scanContract(q.QueryRow(ctx, query, employeeID, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.Contract{}, contract.ErrContractNotFound
		}
		return contract.Contract{}, fmt.Errorf("failed to get active contract: %w", err)
	}

	return c, nil
}

func (r *contractRepository) List(ctx context.Context, companyID string, filter contract.ContractFilter) ([]contract.Contract, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"c.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("c.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		where = append(where, fmt.Sprintf("c.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM payroll_contracts c WHERE " + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM payroll_contracts c
		LEFT JOIN employees e ON e.id = c.employee_id
		WHERE %s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d
	`, contractColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var contracts []contract.Contract
	for rows.Next() {
		var c contract.Contract
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.EmployeeID, &c.Amount, &c.Currency, &c.Term,
			&c.CycleMonths, &c.Payday, &c.JoinDate, &c.PayStart, &c.PayEnd,
			&c.B2B, &c.ToCompanyID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
			&c.EmployeeName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}

	return contracts, totalCount, nil
}

func (r *contractRepository) Update(ctx context.Context, companyID string, req contract.UpdateContractRequest) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{req.ID, companyID}
	argIdx := 3

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		setParts = append(setParts, fmt.Sprintf("amount = $%d", argIdx))
		args = append(args, amount)
		argIdx++
	}
	if req.CycleMonths != nil {
		setParts = append(setParts, fmt.Sprintf("cycle_months = $%d", argIdx))
		args = append(args, *req.CycleMonths)
		argIdx++
	}
	if req.Payday != nil {
		setParts = append(setParts, fmt.Sprintf("payday = $%d", argIdx))
		args = append(args, *req.Payday)
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE payroll_contracts
		SET %s
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`, strings.Join(setParts, ", "))

	var updatedID string
	err := q.QueryRow(ctx, query, args...).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrContractNotFound
		}
		return fmt.Errorf("failed to update contract: %w", err)
	}

	return nil
}

func (r *contractRepository) UpdateStatus(ctx context.Context, id string, companyID string, status contract.ContractStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_contracts
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, status).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrContractNotFound
		}
		return fmt.Errorf("failed to update contract status: %w", err)
	}

	return nil
}

func (r *contractRepository) AdvancePeriod(ctx context.Context, id string, payStart, payEnd time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_contracts
		SET pay_start = $2, pay_end = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, payStart, payEnd).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrContractNotFound
		}
		return fmt.Errorf("failed to advance contract period: %w", err)
	}

	return nil
}

func (r *contractRepository) SetPeriod(ctx context.Context, id string, companyID string, payStart, payEnd time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_contracts
		SET pay_start = $3, pay_end = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, payStart, payEnd).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrContractNotFound
		}
		return fmt.Errorf("failed to set contract period: %w", err)
	}

	return nil
}

func (r *contractRepository) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payroll_contracts WHERE id = $1 AND company_id = $2 RETURNING id`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return contract.ErrContractNotFound
		}
		return fmt.Errorf("failed to delete contract: %w", err)
	}

	return nil
}
