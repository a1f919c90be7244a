package payslip

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Data holds everything a rendered payslip shows.
type Data struct {
	EmployeeName    string
	EmployeeCode    string
	CompanyName     string
	Period          string
	PayDate         string
	Amount          string
	Currency        string
	TransactionHash string
	GeneratedAt     string
}

// Renderer produces payslip documents from settled bills.
type Renderer interface {
	Render(data Data) ([]byte, error)
}

type rendererImpl struct {
	templates *template.Template
}

// NewRenderer parses the embedded payslip template set.
func NewRenderer() (Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse payslip templates: %w", err)
	}

	return &rendererImpl{templates: tmpl}, nil
}

func (r *rendererImpl) Render(data Data) ([]byte, error) {
	if data.GeneratedAt == "" {
		data.GeneratedAt = time.Now().UTC().Format("2006-01-02 15:04 MST")
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "payslip.html", data); err != nil {
		return nil, fmt.Errorf("failed to render payslip: %w", err)
	}

	return buf.Bytes(), nil
}
