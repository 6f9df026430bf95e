package report

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/service"
)

// Handler отдаёт xlsx-выгрузку отчёта: GET /export/report?from=...&to=...
// Учётные данные — в заголовке Authorization, проверяет их сервис отчётов.
type Handler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewHandler(reports *service.ReportService, logger *zap.Logger) *Handler {
	return &Handler{reports: reports, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rep, err := h.reports.GetReport(
		r.Context(),
		r.Header.Get("Authorization"),
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"),
	)
	if err != nil {
		msg := err.Error()
		if apperr.KindOf(err) == apperr.KindStore {
			h.logger.Error("build report", zap.Error(err))
			msg = "internal server error"
		}
		http.Error(w, msg, httpStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		`attachment; filename="report_`+rep.DateFrom+`_`+rep.DateTo+`.xlsx"`)

	if err := WriteXLSX(rep, w); err != nil {
		// Заголовки уже ушли, остаётся только залогировать.
		h.logger.Error("write xlsx report", zap.Error(err))
	}
}

func httpStatus(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindGeofence:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
