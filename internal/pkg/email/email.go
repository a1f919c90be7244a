package email

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/paylane/payroll-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails
type EmailService interface {
	SendInvoiceIssued(to, recipientName, companyName, amount, currency, dueDate string) error
	SendPayslip(to, employeeName, companyName, period, amount, currency string, payslip []byte) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

type invoiceIssuedEmailData struct {
	RecipientName string
	CompanyName   string
	Amount        string
	Currency      string
	DueDate       string
}

// SendInvoiceIssued notifies the recipient that an invoice awaits confirmation
func (s *emailServiceImpl) SendInvoiceIssued(to, recipientName, companyName, amount, currency, dueDate string) error {
	data := invoiceIssuedEmailData{
		RecipientName: recipientName,
		CompanyName:   companyName,
		Amount:        amount,
		Currency:      currency,
		DueDate:       dueDate,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "invoice_issued.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, fmt.Sprintf("Invoice from %s", companyName), body.String(), nil, "")
}

type payslipEmailData struct {
	EmployeeName string
	CompanyName  string
	Period       string
	Amount       string
	Currency     string
}

// SendPayslip delivers the payslip for a settled pay period, with the
// rendered document attached
func (s *emailServiceImpl) SendPayslip(to, employeeName, companyName, period, amount, currency string, payslip []byte) error {
	data := payslipEmailData{
		EmployeeName: employeeName,
		CompanyName:  companyName,
		Period:       period,
		Amount:       amount,
		Currency:     currency,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	filename := fmt.Sprintf("payslip-%s.html", period)
	return s.send(to, fmt.Sprintf("Payslip %s", period), body.String(), payslip, filename)
}

func (s *emailServiceImpl) send(to, subject, htmlBody string, attachment []byte, filename string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	var message []byte
	if attachment == nil {
		headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
		headers += fmt.Sprintf("To: %s\r\n", to)
		headers += fmt.Sprintf("Subject: %s\r\n", subject)
		headers += "MIME-Version: 1.0\r\n"
		headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
		headers += "\r\n"
		message = []byte(headers + htmlBody)
	} else {
		var err error
		message, err = buildMultipart(s.cfg.FromName, from, to, subject, htmlBody, attachment, filename)
		if err != nil {
			return err
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}

func buildMultipart(fromName, from, to, subject, htmlBody string, attachment []byte, filename string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	headers := fmt.Sprintf("From: %s <%s>\r\n", fromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	headers += "\r\n"

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=\"UTF-8\"")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to build email body: %w", err)
	}
	if _, err := bodyPart.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("failed to build email body: %w", err)
	}

	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", "text/html; charset=\"UTF-8\"")
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	attPart, err := writer.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to build email attachment: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(attachment)
	if _, err := attPart.Write([]byte(encoded)); err != nil {
		return nil, fmt.Errorf("failed to build email attachment: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize email: %w", err)
	}

	return append([]byte(headers), buf.Bytes()...), nil
}
