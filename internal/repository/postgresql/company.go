package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

type companyRepository struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, username, email, address, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	var c company.Company
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Username, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company: %w", err)
	}

	return c, nil
}

func (r *companyRepository) Create(ctx context.Context, c company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO companies (name, username, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, username, email, address, created_at, updated_at
	`

	var created company.Company
	err := q.QueryRow(ctx, query, c.Name, c.Username, c.Email, c.Address).Scan(
		&created.ID, &created.Name, &created.Username, &created.Email, &created.Address,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}

	return created, nil
}
