package http

import (
	"net/http"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

func (s *Server) handleListForecasts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := services.ForecastQuery{Kind: core.ForecastKind(query.Get("forecast_type"))}
	var err error
	if q.Year, err = queryIntPtr(query, "year"); err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if q.Month, err = queryIntPtr(query, "month"); err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if q.Completed, err = queryBool(query, "completed"); err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	forecasts, err := s.ledger.ListForecasts(r.Context(), q)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}

func (s *Server) handleForecastSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind := core.ForecastKind(query.Get("forecast_type"))
	if kind == "" {
		kind = core.AnnualForecast
	}
	year, err := queryIntPtr(query, "year")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.ledger.ForecastSummary(r.Context(), kind, year)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	forecast, err := s.ledger.GetForecast(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleCreateForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.ledger.CreateForecast(r.Context(), req.forecast)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req forecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	req.forecast.ID = id
	updated, err := s.ledger.UpdateForecast(r.Context(), req.forecast)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleToggleForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpToggle, err)
		return
	}
	completed, err := s.ledger.ToggleForecast(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpToggle, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": completed})
}

func (s *Server) handleDeleteForecast(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.ledger.DeleteForecast)
}
