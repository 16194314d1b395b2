package handler

import (
	"net/http"
	"strconv"

	"github.com/chisomo/villagebank/internal/domain"
	"github.com/chisomo/villagebank/internal/service"
	"github.com/chisomo/villagebank/pkg/response"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetReport renders one report type, filtered to the current cycle or
// to an archived one. Query params: type, cycleType, cycleNumber.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.ReportFilter{CycleType: query.Get("cycleType")}
	if filter.CycleType == "" {
		filter.CycleType = domain.CycleFilterCurrent
	}
	if filter.CycleType != domain.CycleFilterCurrent && filter.CycleType != domain.CycleFilterHistorical {
		response.BadRequest(w, "cycleType must be current or historical", nil)
		return
	}
	if raw := query.Get("cycleNumber"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, "Invalid cycleNumber", err)
			return
		}
		filter.CycleNumber = &n
	}

	switch query.Get("type") {
	case domain.ReportTypeLoans:
		rows, err := h.service.LoanRows(r.Context(), filter)
		if err != nil {
			response.BusinessError(w, err)
			return
		}
		response.Success(w, rows)
	case domain.ReportTypeSavings:
		rows, err := h.service.SavingRows(r.Context(), filter)
		if err != nil {
			response.BusinessError(w, err)
			return
		}
		response.Success(w, rows)
	case domain.ReportTypeTransactions:
		rows, err := h.service.TransactionRows(r.Context(), filter)
		if err != nil {
			response.BusinessError(w, err)
			return
		}
		response.Success(w, rows)
	case domain.ReportTypeFines:
		rows, err := h.service.FineRows(r.Context(), filter)
		if err != nil {
			response.BusinessError(w, err)
			return
		}
		response.Success(w, rows)
	default:
		response.BadRequest(w, "type must be one of loans, savings, transactions, fines", nil)
	}
}
