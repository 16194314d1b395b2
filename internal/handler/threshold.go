package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type ThresholdHandler struct {
	service   *service.ThresholdService
	validator *validator.Validate
}

func NewThresholdHandler(service *service.ThresholdService) *ThresholdHandler {
	return &ThresholdHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateThreshold sets the borrowing target for a cycle and derives the
// per-member share.
func (h *ThresholdHandler) CreateThreshold(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	threshold, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, threshold)
}

// LatestThreshold returns the most recently set threshold.
func (h *ThresholdHandler) LatestThreshold(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.service.Latest(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, threshold)
}

// Defaulters lists members borrowing below the per-member threshold,
// with the shortfall each still has to take up.
func (h *ThresholdHandler) Defaulters(w http.ResponseWriter, r *http.Request) {
	defaulters, err := h.service.Defaulters(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, defaulters)
}
