package billing

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/domain/company"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
)

type invoiceFixture struct {
	invoices *fakeInvoiceRepo
	company  *fakeCompanyRepo
	email    *fakeEmailService
	clk      *clock.Fixed
	svc      billing.InvoiceService
}

func newInvoiceFixture(now time.Time) *invoiceFixture {
	invoices := newFakeInvoiceRepo()
	companies := newFakeCompanyRepo()
	companies.companies[issuerCompanyID] = company.Company{ID: issuerCompanyID, Name: "Acme Corp"}
	companies.companies[payerCompanyID] = company.Company{ID: payerCompanyID, Name: "Globex Ltd"}
	emailSvc := &fakeEmailService{}
	clk := &clock.Fixed{Instant: now}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &invoiceFixture{
		invoices: invoices,
		company:  companies,
		email:    emailSvc,
		clk:      clk,
		svc:      NewInvoiceService(invoices, companies, emailSvc, clk, logger),
	}
}

func TestInvoiceService_Send_Success(t *testing.T) {
	// Arrange
	now := time.Date(2024, time.January, 26, 9, 0, 0, 0, time.UTC)
	f := newInvoiceFixture(now)
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusDraft))
	ctx := authedContext(t, issuerCompanyID)

	// Act
	err := f.svc.Send(ctx, inv.ID)

	// Assert
	require.NoError(t, err)
	stored := f.invoices.invoices[inv.ID]
	assert.Equal(t, billing.InvoiceStatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, now, *stored.SentAt)

	// The recipient was notified.
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "jane.doe@example.com", f.email.sent[0].To)
	assert.Equal(t, "invoice", f.email.sent[0].Subject)
}

func TestInvoiceService_Send_NonDraftRejected(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 26, 9, 0, 0, 0, time.UTC))
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusSent))
	ctx := authedContext(t, issuerCompanyID)

	// Act
	err := f.svc.Send(ctx, inv.ID)

	// Assert
	assert.ErrorIs(t, err, billing.ErrInvalidInvoiceState)
	assert.Empty(t, f.email.sent)
}

func TestInvoiceService_Send_OnlyIssuer(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 26, 9, 0, 0, 0, time.UTC))
	recipient := payerCompanyID
	inv := f.invoices.seed(b2bInvoice(billing.InvoiceStatusDraft, &recipient))

	// Act: the recipient cannot send someone else's invoice.
	err := f.svc.Send(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
	assert.Equal(t, billing.InvoiceStatusDraft, f.invoices.invoices[inv.ID].Status)
}

func TestInvoiceService_Confirm_EmployeeByIssuer(t *testing.T) {
	// Arrange
	now := time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC)
	f := newInvoiceFixture(now)
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusSent))

	// Act
	err := f.svc.Confirm(authedContext(t, issuerCompanyID), inv.ID)

	// Assert
	require.NoError(t, err)
	stored := f.invoices.invoices[inv.ID]
	assert.Equal(t, billing.InvoiceStatusConfirmed, stored.Status)
	require.NotNil(t, stored.ConfirmedAt)
	assert.Equal(t, now, *stored.ConfirmedAt)
}

func TestInvoiceService_Confirm_EmployeeByOtherCompany(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusSent))

	// Act
	err := f.svc.Confirm(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

func TestInvoiceService_Confirm_B2BFixedRecipient(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	recipient := payerCompanyID
	inv := f.invoices.seed(b2bInvoice(billing.InvoiceStatusSent, &recipient))

	// Act: the issuer cannot confirm an invoice addressed to another
	// company.
	issuerErr := f.svc.Confirm(authedContext(t, issuerCompanyID), inv.ID)
	recipientErr := f.svc.Confirm(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	assert.ErrorIs(t, issuerErr, billing.ErrWrongRecipient)
	require.NoError(t, recipientErr)
	assert.Equal(t, billing.InvoiceStatusConfirmed, f.invoices.invoices[inv.ID].Status)
}

func TestInvoiceService_Confirm_B2BClaimable(t *testing.T) {
	// Arrange: no fixed recipient means first confirmer claims it.
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	inv := f.invoices.seed(b2bInvoice(billing.InvoiceStatusSent, nil))

	// Act
	err := f.svc.Confirm(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusConfirmed, f.invoices.invoices[inv.ID].Status)
}

func TestInvoiceService_Confirm_RequiresSent(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusDraft))

	// Act
	err := f.svc.Confirm(authedContext(t, issuerCompanyID), inv.ID)

	// Assert
	assert.ErrorIs(t, err, billing.ErrInvalidInvoiceState)
}

func TestInvoiceService_Get_FixedRecipientCanRead(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	recipient := payerCompanyID
	inv := f.invoices.seed(b2bInvoice(billing.InvoiceStatusSent, &recipient))

	// Act
	got, err := f.svc.Get(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, "9000.00", got.Amount)
}

func TestInvoiceService_Get_StrangerDenied(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	inv := f.invoices.seed(employeeInvoice(billing.InvoiceStatusSent))

	// Act
	_, err := f.svc.Get(authedContext(t, payerCompanyID), inv.ID)

	// Assert
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

func TestInvoiceService_List_FiltersByStatus(t *testing.T) {
	// Arrange
	f := newInvoiceFixture(time.Date(2024, time.January, 27, 8, 0, 0, 0, time.UTC))
	f.invoices.seed(employeeInvoice(billing.InvoiceStatusDraft))
	sent := f.invoices.seed(employeeInvoice(billing.InvoiceStatusSent))

	status := billing.InvoiceStatusSent

	// Act
	got, err := f.svc.List(authedContext(t, issuerCompanyID), billing.InvoiceFilter{Status: &status})

	// Assert
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	assert.Equal(t, sent.ID, got.Data[0].ID)
	assert.Equal(t, int64(1), got.TotalCount)
}
