package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/employee"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_code, full_name, email, phone_number,
			   hire_date, employment_status, base_salary, created_at, updated_at
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	var e employee.Employee
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FullName, &e.Email, &e.PhoneNumber,
		&e.HireDate, &e.EmploymentStatus, &e.BaseSalary, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (company_id, employee_code, full_name, email, phone_number,
			hire_date, employment_status, base_salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, company_id, employee_code, full_name, email, phone_number,
			hire_date, employment_status, base_salary, created_at, updated_at
	`

	var created employee.Employee
	err := q.QueryRow(ctx, query,
		e.CompanyID, e.EmployeeCode, e.FullName, e.Email, e.PhoneNumber,
		e.HireDate, e.EmploymentStatus, e.BaseSalary,
	).Scan(
		&created.ID, &created.CompanyID, &created.EmployeeCode, &created.FullName, &created.Email,
		&created.PhoneNumber, &created.HireDate, &created.EmploymentStatus, &created.BaseSalary,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return created, nil
}
