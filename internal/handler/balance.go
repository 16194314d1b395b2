package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type BalanceHandler struct {
	service *service.BalanceService
}

func NewBalanceHandler(service *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{service: service}
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type setBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetBalance returns the current bank balance.
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Get(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, balanceResponse{Balance: balance})
}

// SetBalance overwrites the bank balance. Admin correction path only.
func (h *BalanceHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.service.Set(r.Context(), actor, req.Balance); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, balanceResponse{Balance: req.Balance})
}

// ListTransactions returns the full live ledger.
func (h *BalanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.AllTransactions(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, transactions)
}

// ListUserTransactions returns one member's ledger entries.
func (h *BalanceHandler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		response.BadRequest(w, "Invalid user id", err)
		return
	}

	transactions, err := h.service.Transactions(r.Context(), userID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, transactions)
}
