package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/handler/http/response"
	"github.com/paylane/payroll-backend-go/internal/pkg/xendit"
)

type WebhookHandler interface {
	PaymentCallback(w http.ResponseWriter, r *http.Request)
}

type webhookHandlerImpl struct {
	verifier          *xendit.WebhookVerifier
	settlementService billing.SettlementService
	logger            *slog.Logger
}

func NewWebhookHandler(
	verifier *xendit.WebhookVerifier,
	settlementService billing.SettlementService,
	logger *slog.Logger,
) WebhookHandler {
	return &webhookHandlerImpl{
		verifier:          verifier,
		settlementService: settlementService,
		logger:            logger,
	}
}

// PaymentCallback receives payment link callbacks from the gateway and
// settles the batch encoded in the link metadata. Gateways retry
// callbacks, so an already-settled batch answers 200.
func (h *webhookHandlerImpl) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	if !h.verifier.VerifySignature(r.Header.Get("x-callback-token")) {
		response.Unauthorized(w, "Invalid callback token")
		return
	}

	var payload xendit.PaymentWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.BadRequest(w, "Invalid callback body", nil)
		return
	}

	if payload.Status != xendit.PaymentLinkStatusPaid && payload.Status != xendit.PaymentLinkStatusSettled {
		h.logger.Info("ignoring non-payment callback",
			slog.String("external_id", payload.ExternalID),
			slog.String("status", payload.Status),
		)
		response.Success(w, nil)
		return
	}

	companyID := payload.Metadata["company_id"]
	billIDs := splitIDs(payload.Metadata["bill_ids"])
	if companyID == "" || len(billIDs) == 0 {
		response.BadRequest(w, "Callback metadata is missing the settlement batch", nil)
		return
	}

	result, err := h.settlementService.PayBills(r.Context(), companyID, billIDs, payload.ID)
	if errors.Is(err, billing.ErrBillNotFound) {
		// A retried callback finds the batch no longer payable; answer
		// 200 so the gateway stops retrying.
		h.logger.Info("callback batch already settled",
			slog.String("external_id", payload.ExternalID),
		)
		response.Success(w, nil)
		return
	}
	if err != nil {
		h.logger.Error("webhook settlement failed",
			slog.String("external_id", payload.ExternalID),
			slog.Any("error", err),
		)
		response.HandleError(w, err)
		return
	}

	h.logger.Info("webhook settlement committed",
		slog.String("external_id", payload.ExternalID),
		slog.Int("bill_count", result.BillCount),
	)
	response.Success(w, nil)
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
