package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/EleazarRC/contabilidad-personal/internal/export"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.ledger.MonthlySummary(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnnualSummary(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.ledger.AnnualSummary(r.Context(), year)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAvailableYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.ledger.AvailableYears(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	cal, err := s.ledger.Calendar(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) handleUpcomingForecasts(w http.ResponseWriter, r *http.Request) {
	forecasts, err := s.ledger.UpcomingForecasts(r.Context(), services.UpcomingLimit)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}

func (s *Server) handleDailyBalance(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	balance, err := s.ledger.DailyBalance(r.Context(), year, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleDataStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.DataStats(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	var req deleteAllRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	deleted, err := s.ledger.DeleteAllData(r.Context(), req.Confirm)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all data deleted",
		"deleted": deleted,
	})
}

// handleExportAnnual renders the workbook into memory first so a failure
// can still be reported as JSON.
func (s *Server) handleExportAnnual(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query())
	if err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := s.ledger.ExportAnnual(r.Context(), year, &buf); err != nil {
		writeError(w, r, applog.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(year)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
