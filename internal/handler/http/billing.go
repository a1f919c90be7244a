package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/paylane/payroll-backend-go/internal/domain/billing"
	"github.com/paylane/payroll-backend-go/internal/handler/http/response"
)

var errTokenWithoutCompany = errors.New("token has no company scope")

type BillingHandler interface {
	// Invoices
	GetInvoice(w http.ResponseWriter, r *http.Request)
	ListInvoices(w http.ResponseWriter, r *http.Request)
	SendInvoice(w http.ResponseWriter, r *http.Request)
	ConfirmInvoice(w http.ResponseWriter, r *http.Request)

	// Bills
	CreateBill(w http.ResponseWriter, r *http.Request)
	GetBill(w http.ResponseWriter, r *http.Request)
	ListBills(w http.ResponseWriter, r *http.Request)
	CancelBill(w http.ResponseWriter, r *http.Request)

	// Settlement
	PayBills(w http.ResponseWriter, r *http.Request)
	CreatePaymentLink(w http.ResponseWriter, r *http.Request)
}

type billingHandlerImpl struct {
	invoiceService    billing.InvoiceService
	billService       billing.BillService
	settlementService billing.SettlementService
}

func NewBillingHandler(
	invoiceService billing.InvoiceService,
	billService billing.BillService,
	settlementService billing.SettlementService,
) BillingHandler {
	return &billingHandlerImpl{
		invoiceService:    invoiceService,
		billService:       billService,
		settlementService: settlementService,
	}
}

// ========== INVOICES ==========

func (h *billingHandlerImpl) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Invoice ID is required", nil)
		return
	}

	result, err := h.invoiceService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *billingHandlerImpl) ListInvoices(w http.ResponseWriter, r *http.Request) {
	filter := billing.InvoiceFilter{
		Page:  parseIntQuery(r, "page", 1),
		Limit: parseIntQuery(r, "limit", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		is := billing.InvoiceStatus(status)
		filter.Status = &is
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		ik := billing.InvoiceKind(kind)
		filter.Kind = &ik
	}
	if contractID := r.URL.Query().Get("contract_id"); contractID != "" {
		filter.ContractID = &contractID
	}

	result, err := h.invoiceService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages(result.TotalCount, result.Limit),
	})
}

func (h *billingHandlerImpl) SendInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Invoice ID is required", nil)
		return
	}

	if err := h.invoiceService.Send(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice sent", nil)
}

func (h *billingHandlerImpl) ConfirmInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Invoice ID is required", nil)
		return
	}

	if err := h.invoiceService.Confirm(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice confirmed", nil)
}

// ========== BILLS ==========

func (h *billingHandlerImpl) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req billing.CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.billService.CreateFromInvoice(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Bill created", result)
}

func (h *billingHandlerImpl) GetBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bill ID is required", nil)
		return
	}

	result, err := h.billService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *billingHandlerImpl) ListBills(w http.ResponseWriter, r *http.Request) {
	filter := billing.BillFilter{
		Page:  parseIntQuery(r, "page", 1),
		Limit: parseIntQuery(r, "limit", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		bs := billing.BillStatus(status)
		filter.Status = &bs
	}

	result, err := h.billService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages(result.TotalCount, result.Limit),
	})
}

func (h *billingHandlerImpl) CancelBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Bill ID is required", nil)
		return
	}

	if err := h.billService.Cancel(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bill cancelled", nil)
}

// ========== SETTLEMENT ==========

func (h *billingHandlerImpl) PayBills(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDFromClaims(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req billing.PayBillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.settlementService.PayBills(r.Context(), companyID, req.BillIDs, req.TransactionHash)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bills settled", result)
}

func (h *billingHandlerImpl) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyIDFromClaims(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req billing.CreatePaymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.settlementService.CreatePaymentLink(r.Context(), companyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payment link created", result)
}

func companyIDFromClaims(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", err
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", errTokenWithoutCompany
	}
	return companyID, nil
}
