package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

type invoiceRepository struct {
	db *database.DB
}

func NewInvoiceRepository(db *database.DB) billing.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `
	i.id, i.company_id, i.contract_id, i.employee_id, i.to_company_id, i.kind,
	i.amount, i.currency, i.status, i.issue_date, i.due_date,
	i.sent_at, i.confirmed_at, i.paid_at, i.created_at, i.updated_at
`

func scanInvoice(row pgx.Row) (billing.Invoice, error) {
	var inv billing.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.ContractID, &inv.EmployeeID, &inv.ToCompanyID, &inv.Kind,
		&inv.Amount, &inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate,
		&inv.SentAt, &inv.ConfirmedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	return inv, err
}

func (r *invoiceRepository) Create(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO invoices (
			company_id, contract_id, employee_id, to_company_id, kind,
			amount, currency, status, issue_date, due_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, company_id, contract_id, employee_id, to_company_id, kind,
			amount, currency, status, issue_date, due_date,
			sent_at, confirmed_at, paid_at, created_at, updated_at
	`

	created, err := scanInvoice(q.QueryRow(ctx, query,
		inv.CompanyID, inv.ContractID, inv.EmployeeID, inv.ToCompanyID, inv.Kind,
		inv.Amount, inv.Currency, inv.Status, inv.IssueDate, inv.DueDate,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uq_invoice_contract_due") {
			return billing.Invoice{}, billing.ErrInvoiceAlreadyExists
		}
		return billing.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	return created, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string, companyID string) (billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + invoiceColumns + `, e.full_name, e.email
		FROM invoices i
		LEFT JOIN employees e ON e.id = i.employee_id
		WHERE i.id = $1 AND i.company_id = $2
	`

	var inv billing.Invoice
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&inv.ID, &inv.CompanyID, &inv.ContractID, &inv.EmployeeID, &inv.ToCompanyID, &inv.Kind,
		&inv.Amount, &inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate,
		&inv.SentAt, &inv.ConfirmedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.EmployeeName, &inv.EmployeeEmail,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Invoice{}, billing.ErrInvoiceNotFound
		}
		return billing.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}

	return inv, nil
}

func (r *invoiceRepository) GetByIDAny(ctx context.Context, id string) (billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices i
		WHERE i.id = $1
	`

	inv, err := scanInvoice(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Invoice{}, billing.ErrInvoiceNotFound
		}
		return billing.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}

	return inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, companyID string, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"i.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("i.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Kind != nil {
		where = append(where, fmt.Sprintf("i.kind = $%d", argIdx))
		args = append(args, *filter.Kind)
		argIdx++
	}
	if filter.ContractID != nil {
		where = append(where, fmt.Sprintf("i.contract_id = $%d", argIdx))
		args = append(args, *filter.ContractID)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM invoices i WHERE " + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
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
		SELECT %s, e.full_name, e.email
		FROM invoices i
		LEFT JOIN employees e ON e.id = i.employee_id
		WHERE %s
		ORDER BY i.issue_date DESC, i.created_at DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []billing.Invoice
	for rows.Next() {
		var inv billing.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.CompanyID, &inv.ContractID, &inv.EmployeeID, &inv.ToCompanyID, &inv.Kind,
			&inv.Amount, &inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate,
			&inv.SentAt, &inv.ConfirmedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
			&inv.EmployeeName, &inv.EmployeeEmail,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, totalCount, nil
}

func (r *invoiceRepository) ExistsByContract(ctx context.Context, contractID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM invoices WHERE contract_id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, contractID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check invoices for contract: %w", err)
	}

	return exists, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, companyID string, status billing.InvoiceStatus, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	var tsColumn string
	switch status {
	case billing.InvoiceStatusSent:
		tsColumn = "sent_at"
	case billing.InvoiceStatusConfirmed:
		tsColumn = "confirmed_at"
	case billing.InvoiceStatusPaid:
		tsColumn = "paid_at"
	default:
		return billing.ErrInvalidInvoiceState
	}

	query := fmt.Sprintf(`
		UPDATE invoices
		SET status = $3, %s = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`, tsColumn)

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, status, at).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	return nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, ids []string, paidAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoices
		SET status = 'paid', paid_at = $2, updated_at = NOW()
		WHERE id = ANY($1)
	`

	tag, err := q.Exec(ctx, query, ids, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark invoices paid: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("expected %d invoices updated, got %d", len(ids), tag.RowsAffected())
	}

	return nil
}
