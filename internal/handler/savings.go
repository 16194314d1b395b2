package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type SavingsHandler struct {
	service   *service.SavingsService
	validator *validator.Validate
}

func NewSavingsHandler(service *service.SavingsService) *SavingsHandler {
	return &SavingsHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateSaving records a monthly contribution, applying the minimum
// contribution fine and the early-cycle deposit cap.
func (h *SavingsHandler) CreateSaving(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateSavingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	saving, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, saving)
}

// GetUserSavings returns a member's contributions for the current cycle.
func (h *SavingsHandler) GetUserSavings(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		response.BadRequest(w, "Invalid user id", err)
		return
	}

	savings, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, savings)
}
