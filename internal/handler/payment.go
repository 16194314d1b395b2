package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type PaymentHandler struct {
	service   *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(service *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: validator.New(),
	}
}

type paymentRequest struct {
	Username string          `json:"username" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Note     string          `json:"note"`
}

// AllocateRepayment takes a single lump sum and spreads it across the
// member's outstanding installments in month order.
func (h *PaymentHandler) AllocateRepayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.AllocateRepayment(r.Context(), actor, req.Username, req.Amount, req.Note)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, result)
}

// RecordPayment records a standalone inbound payment (not tied to a loan).
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	h.recordSimple(w, r, false)
}

// Payout records an outbound disbursement to a member.
func (h *PaymentHandler) Payout(w http.ResponseWriter, r *http.Request) {
	h.recordSimple(w, r, true)
}

func (h *PaymentHandler) recordSimple(w http.ResponseWriter, r *http.Request, payout bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	var err error
	if payout {
		err = h.service.Payout(r.Context(), actor, req.Username, req.Amount, req.Note)
	} else {
		err = h.service.RecordPayment(r.Context(), actor, req.Username, req.Amount, req.Note)
	}
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, map[string]string{"status": "recorded"})
}

// IssueFine records a fine against a member. No money moves until the
// fine is paid.
func (h *PaymentHandler) IssueFine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.IssueFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	fine, err := h.service.IssueFine(r.Context(), actor, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, fine)
}

// PayFine settles an outstanding fine and credits the bank.
func (h *PaymentHandler) PayFine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.PayFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	fine, err := h.service.PayFine(r.Context(), actor, req.FineID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, fine)
}

// ListUnpaidFines returns every fine still awaiting payment.
func (h *PaymentHandler) ListUnpaidFines(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	fines, err := h.service.ListUnpaidFines(r.Context(), actor)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, fines)
}

// DeleteAllFines wipes the fines table for the current cycle. Admin only.
func (h *PaymentHandler) DeleteAllFines(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteAllFines(r.Context(), actor); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": "deleted"})
}
