package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/paylane/payroll-backend-go/internal/config"
	"github.com/paylane/payroll-backend-go/internal/handler/http/middleware"
	"github.com/paylane/payroll-backend-go/internal/pkg/jwt"
)

func NewRouter(
	cfg config.AppConfig,
	jwtService jwt.Service,
	contractHandler ContractHandler,
	billingHandler BillingHandler,
	webhookHandler WebhookHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "paylane-billing"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Gateway callbacks authenticate with the callback token, not JWT
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/payment", webhookHandler.PaymentCallback)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/contracts", func(r chi.Router) {
				r.Post("/", contractHandler.Create)
				r.Get("/", contractHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", contractHandler.Get)
					r.Put("/", contractHandler.Update)
					r.Delete("/", contractHandler.Delete)
					r.Post("/pause", contractHandler.Pause)
					r.Post("/resume", contractHandler.Resume)
				})
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", billingHandler.ListInvoices)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", billingHandler.GetInvoice)
					r.Post("/send", billingHandler.SendInvoice)
					r.Post("/confirm", billingHandler.ConfirmInvoice)
				})
			})

			r.Route("/bills", func(r chi.Router) {
				r.Post("/", billingHandler.CreateBill)
				r.Get("/", billingHandler.ListBills)
				r.Post("/pay", billingHandler.PayBills)
				r.Post("/payment-link", billingHandler.CreatePaymentLink)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", billingHandler.GetBill)
					r.Post("/cancel", billingHandler.CancelBill)
				})
			})
		})
	})
	return r
}
