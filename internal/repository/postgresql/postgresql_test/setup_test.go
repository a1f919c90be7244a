package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paylane/payroll-backend-go/internal/pkg/database"
)

var (
	testDB     *database.DB
	testDBErr  error
	testDBOnce sync.Once
)

// requireTestDB connects once per test binary. These tests run against
// a live database with the schema applied and skip when
// TEST_DATABASE_URL is unset.
func requireTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database-backed tests")
	}

	testDBOnce.Do(func() {
		testDB, testDBErr = database.NewPostgreSQLDB(dsn)
	})
	require.NoError(t, testDBErr, "failed to connect to test database")

	return testDB
}

func setupTestData(t *testing.T) {
	truncateTables(t)
}

func cleanupTestData(t *testing.T) {
	truncateTables(t)
}

func truncateTables(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	tx, err := testDB.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tables := []string{"bills", "invoices", "invoice_schedules", "payroll_contracts", "employees", "companies"}
	for _, table := range tables {
		_, err = tx.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = tx.Commit(ctx)
	require.NoError(t, err)
}

// Helper untuk membuat company untuk testing
func createTestCompany(t *testing.T, ctx context.Context, name, username string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO companies (name, username, email, address)
		VALUES ($1, $2, $3, 'Jl. Test No. 1')
		RETURNING id
	`, name, username, username+"@example.com").Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestEmployee(t *testing.T, ctx context.Context, companyID string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, email,
			hire_date, employment_status, base_salary)
		VALUES ($1, 'EMP-001', 'Jane Doe', 'jane.doe@example.com',
			'2024-01-02', 'active', 2500.00)
		RETURNING id
	`, companyID).Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestContract(t *testing.T, ctx context.Context, companyID, employeeID string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO payroll_contracts (company_id, employee_id, amount, currency, term,
			cycle_months, payday, join_date, pay_start, pay_end, b2b, to_company_id, status)
		VALUES ($1, $2, 2500.00, 'USD', 'permanent',
			1, 31, '2024-01-02', '2024-01-31', '2024-02-29', false, NULL, 'active')
		RETURNING id
	`, companyID, employeeID).Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestSchedule(t *testing.T, ctx context.Context, contractID string, nextFireAt time.Time) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO invoice_schedules (contract_id, active, cadence, day_of_month, lead_days, next_fire_at)
		VALUES ($1, true, 'monthly', 31, 5, $2)
		RETURNING id
	`, contractID, nextFireAt).Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestInvoice(t *testing.T, ctx context.Context, companyID, contractID, employeeID string, dueDate time.Time, status string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(ctx, `
		INSERT INTO invoices (company_id, contract_id, employee_id, kind, amount, currency,
			status, issue_date, due_date, confirmed_at)
		VALUES ($1, $2, $3, 'employee', 2500.00, 'USD', $4, $5, $5, NOW())
		RETURNING id
	`, companyID, contractID, employeeID, status, dueDate).Scan(&id)
	require.NoError(t, err)

	return id
}
