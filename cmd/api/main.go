package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/paylane/payroll-backend-go/internal/config"
	appHTTP "github.com/paylane/payroll-backend-go/internal/handler/http"
	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
	"github.com/paylane/payroll-backend-go/internal/pkg/cron"
	"github.com/paylane/payroll-backend-go/internal/pkg/database"
	"github.com/paylane/payroll-backend-go/internal/pkg/email"
	"github.com/paylane/payroll-backend-go/internal/pkg/jwt"
	"github.com/paylane/payroll-backend-go/internal/pkg/payslip"
	"github.com/paylane/payroll-backend-go/internal/pkg/xendit"
	"github.com/paylane/payroll-backend-go/internal/repository/postgresql"
	billingService "github.com/paylane/payroll-backend-go/internal/service/billing"
	contractService "github.com/paylane/payroll-backend-go/internal/service/contract"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "paylane-billing"),
	)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	contractRepo := postgresql.NewContractRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	invoiceRepo := postgresql.NewInvoiceRepository(db)
	billRepo := postgresql.NewBillRepository(db)

	runTx := postgresql.NewTxRunner(db)
	clk := clock.System()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}
	payslipRenderer, err := payslip.NewRenderer()
	if err != nil {
		log.Fatal("Failed to initialize payslip renderer:", err)
	}
	gatewayClient := xendit.NewClient(cfg.Xendit)
	webhookVerifier := xendit.NewWebhookVerifier(cfg.Xendit.WebhookToken)

	contractSvc := contractService.NewContractService(
		contractRepo,
		scheduleRepo,
		employeeRepo,
		invoiceRepo,
		runTx,
		clk,
		logger,
	)
	generatorSvc := contractService.NewGeneratorService(
		contractRepo,
		scheduleRepo,
		invoiceRepo,
		runTx,
		logger,
	)
	invoiceSvc := billingService.NewInvoiceService(
		invoiceRepo,
		companyRepo,
		emailService,
		clk,
		logger,
	)
	billSvc := billingService.NewBillService(
		billRepo,
		invoiceRepo,
		clk,
		logger,
	)
	settlementSvc := billingService.NewSettlementService(
		billRepo,
		invoiceRepo,
		companyRepo,
		runTx,
		gatewayClient,
		cfg.Xendit,
		payslipRenderer,
		emailService,
		clk,
		logger,
	)

	scheduler := cron.NewScheduler(clk)
	cron.RegisterBillingJobs(scheduler, cfg.Billing, generatorSvc, billSvc)
	scheduler.Start()
	defer scheduler.Stop()

	contractHandler := appHTTP.NewContractHandler(contractSvc)
	billingHandler := appHTTP.NewBillingHandler(invoiceSvc, billSvc, settlementSvc)
	webhookHandler := appHTTP.NewWebhookHandler(webhookVerifier, settlementSvc, logger)

	router := appHTTP.NewRouter(
		cfg.App,
		jwtService,
		contractHandler,
		billingHandler,
		webhookHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
