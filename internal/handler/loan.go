package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateLoan disburses a new loan with a generated repayment schedule.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, err := h.service.Disburse(r.Context(), actor, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans returns all live loans in the current cycle.
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLive(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, loans)
}

// GetUserLoans returns the loans of a single member.
func (h *LoanHandler) GetUserLoans(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		response.BadRequest(w, "Invalid user id", err)
		return
	}

	loans, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, loans)
}

// UpdateLoan edits loan terms. Amount and duration are only editable
// before repayments start; the note is always editable.
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id", err)
		return
	}

	var req domain.UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.Update(r.Context(), actor, loanID, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

// RepayInstallment settles a named installment in full. Payments that
// should split across months go through the payment allocator instead.
func (h *LoanHandler) RepayInstallment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.RepayInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, err := h.service.RepayInstallment(r.Context(), actor, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, loan)
}

func parseMonth(raw string) (int, error) {
	return strconv.Atoi(raw)
}

// ReverseInstallment undoes a mistaken repayment, returning the
// installment to unpaid.
func (h *LoanHandler) ReverseInstallment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	vars := mux.Vars(r)
	loanID, err := uuid.Parse(vars["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan id", err)
		return
	}
	month, err := parseMonth(vars["month"])
	if err != nil {
		response.BadRequest(w, "Invalid month", err)
		return
	}

	loan, err := h.service.ReverseInstallment(r.Context(), actor, loanID, month)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, loan)
}
