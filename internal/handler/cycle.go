package handler

import (
	"net/http"

	"github.com/chisomo/villagebank/internal/middleware"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type CycleHandler struct {
	service *service.CycleService
}

func NewCycleHandler(service *service.CycleService) *CycleHandler {
	return &CycleHandler{service: service}
}

// BeginNewCycle archives the current cycle and resets the ledger. The
// whole operation commits or rolls back as one transaction.
func (h *CycleHandler) BeginNewCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.BeginNewCycle(r.Context(), actor)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, result)
}

// CurrentCycle reports the active cycle number.
func (h *CycleHandler) CurrentCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.service.CurrentCycleNumber(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]int{"cycle_number": cycle})
}
