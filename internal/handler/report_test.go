package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReport_RejectsBadParams(t *testing.T) {
	// Parameter validation happens before any service call.
	h := NewReportHandler(nil)

	tests := []struct {
		name  string
		query string
	}{
		{"missing type", ""},
		{"unknown type", "type=members"},
		{"bad cycle type", "type=loans&cycleType=ancient"},
		{"non-numeric cycle number", "type=loans&cycleType=historical&cycleNumber=abc"},
		{"zero cycle number", "type=loans&cycleType=historical&cycleNumber=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.GetReport(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
