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

type billRepository struct {
	db *database.DB
}

func NewBillRepository(db *database.DB) billing.BillRepository {
	return &billRepository{db: db}
}

const billColumns = `
	b.id, b.company_id, b.invoice_id, b.status, b.paid_at,
	b.transaction_hash, b.metadata, b.created_at, b.updated_at
`

func (r *billRepository) Create(ctx context.Context, b billing.Bill) (billing.Bill, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bills (company_id, invoice_id, status, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, invoice_id, status, paid_at,
			transaction_hash, metadata, created_at, updated_at
	`

	var created billing.Bill
	err := q.QueryRow(ctx, query, b.CompanyID, b.InvoiceID, b.Status, b.Metadata).Scan(
		&created.ID, &created.CompanyID, &created.InvoiceID, &created.Status, &created.PaidAt,
		&created.TransactionHash, &created.Metadata, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		// invoice_id carries a unique constraint: one bill per invoice
		if strings.Contains(err.Error(), "uq_bill_invoice") {
			return billing.Bill{}, billing.ErrBillAlreadyExists
		}
		return billing.Bill{}, fmt.Errorf("failed to create bill: %w", err)
	}

	return created, nil
}

func (r *billRepository) GetByID(ctx context.Context, id string, companyID string) (billing.Bill, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + billColumns + `, ` + invoiceColumns + `
		FROM bills b
		JOIN invoices i ON i.id = b.invoice_id
		WHERE b.id = $1 AND b.company_id = $2
	`

	b, err := scanBillWithInvoice(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.Bill{}, billing.ErrBillNotFound
		}
		return billing.Bill{}, fmt.Errorf("failed to get bill: %w", err)
	}

	return b, nil
}

func scanBillWithInvoice(row pgx.Row) (billing.Bill, error) {
	var b billing.Bill
	var inv billing.Invoice
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.InvoiceID, &b.Status, &b.PaidAt,
		&b.TransactionHash, &b.Metadata, &b.CreatedAt, &b.UpdatedAt,
		&inv.ID, &inv.CompanyID, &inv.ContractID, &inv.EmployeeID, &inv.ToCompanyID, &inv.Kind,
		&inv.Amount, &inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate,
		&inv.SentAt, &inv.ConfirmedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return billing.Bill{}, err
	}
	b.Invoice = &inv
	return b, nil
}

func (r *billRepository) List(ctx context.Context, companyID string, filter billing.BillFilter) ([]billing.Bill, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{"b.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("b.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM bills b WHERE " + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
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
		SELECT %s, %s
		FROM bills b
		JOIN invoices i ON i.id = b.invoice_id
		WHERE %s
		ORDER BY b.created_at DESC
		LIMIT $%d OFFSET $%d
	`, billColumns, invoiceColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []billing.Bill
	for rows.Next() {
		b, err := scanBillWithInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}

	return bills, totalCount, nil
}

func (r *billRepository) ListPayableByIDs(ctx context.Context, ids []string, companyID string) ([]billing.Bill, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + billColumns + `, ` + invoiceColumns + `, e.full_name, e.email
		FROM bills b
		JOIN invoices i ON i.id = b.invoice_id
		LEFT JOIN employees e ON e.id = i.employee_id
		WHERE b.id = ANY($1) AND b.company_id = $2 AND b.status IN ('pending', 'overdue')
	`

	rows, err := q.Query(ctx, query, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payable bills: %w", err)
	}
	defer rows.Close()

	var bills []billing.Bill
	for rows.Next() {
		var b billing.Bill
		var inv billing.Invoice
		if err := rows.Scan(
			&b.ID, &b.CompanyID, &b.InvoiceID, &b.Status, &b.PaidAt,
			&b.TransactionHash, &b.Metadata, &b.CreatedAt, &b.UpdatedAt,
			&inv.ID, &inv.CompanyID, &inv.ContractID, &inv.EmployeeID, &inv.ToCompanyID, &inv.Kind,
			&inv.Amount, &inv.Currency, &inv.Status, &inv.IssueDate, &inv.DueDate,
			&inv.SentAt, &inv.ConfirmedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
			&inv.EmployeeName, &inv.EmployeeEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payable bill: %w", err)
		}
		b.Invoice = &inv
		bills = append(bills, b)
	}

	return bills, nil
}

func (r *billRepository) MarkPaid(ctx context.Context, ids []string, paidAt time.Time, transactionHash string) error {
	q := GetQuerier(ctx, r.db)

	// The status filter re-validates the precondition inside the
	// settlement transaction; an already-paid bill makes the count
	// mismatch and the whole batch roll back.
	query := `
		UPDATE bills
		SET status = 'paid', paid_at = $2, transaction_hash = $3, updated_at = NOW()
		WHERE id = ANY($1) AND status IN ('pending', 'overdue')
	`

	tag, err := q.Exec(ctx, query, ids, paidAt, transactionHash)
	if err != nil {
		return fmt.Errorf("failed to mark bills paid: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("%w: expected %d bills updated, got %d",
			billing.ErrBillNotPayable, len(ids), tag.RowsAffected())
	}

	return nil
}

func (r *billRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bills b
		SET status = 'overdue', updated_at = NOW()
		FROM invoices i
		WHERE i.id = b.invoice_id
		  AND b.status = 'pending'
		  AND i.due_date < $1
	`

	tag, err := q.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue bills: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *billRepository) UpdateStatus(ctx context.Context, id string, companyID string, status billing.BillStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bills
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, status).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return billing.ErrBillNotFound
		}
		return fmt.Errorf("failed to update bill status: %w", err)
	}

	return nil
}
