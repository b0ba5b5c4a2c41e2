package services

import (
	"context"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

// UpcomingLimit is how many pending reminders the dashboard shows.
const UpcomingLimit = 5

// ForecastQuery selects forecasts. Year applies to annual forecasts (that
// year plus recurring ones) and Month to monthly ones.
type ForecastQuery struct {
	Kind      core.ForecastKind
	Year      *int
	Month     *int
	Completed *bool
}

func (s *LedgerService) ListForecasts(ctx context.Context, q ForecastQuery) ([]core.Forecast, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, core.Validationf("invalid forecast type %q", q.Kind)
	}
	if q.Month != nil && (*q.Month < 1 || *q.Month > 12) {
		return nil, core.ErrInvalidMonth
	}
	return s.store.ListForecasts(ctx, storage.ForecastFilter{
		Kind:      q.Kind,
		Year:      q.Year,
		Month:     q.Month,
		Completed: q.Completed,
	})
}

func (s *LedgerService) GetForecast(ctx context.Context, id int64) (core.Forecast, error) {
	return s.store.GetForecast(ctx, id)
}

func (s *LedgerService) CreateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return f, err
	}
	created, err := s.store.CreateForecast(ctx, f)
	if err != nil {
		return f, err
	}
	slog.InfoContext(ctx, "Forecast created",
		"id", created.ID, "type", created.Kind, "recurring", created.Recurring, "amount", created.Amount.String())
	return created, nil
}

func (s *LedgerService) UpdateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return f, err
	}
	return s.store.UpdateForecast(ctx, f)
}

// ToggleForecast flips the completed flag and returns the new value.
func (s *LedgerService) ToggleForecast(ctx context.Context, id int64) (bool, error) {
	completed, err := s.store.ToggleForecast(ctx, id)
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Forecast toggled", "id", id, "completed", completed)
	return completed, nil
}

func (s *LedgerService) DeleteForecast(ctx context.Context, id int64) error {
	if err := s.store.DeleteForecast(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Forecast deleted", "id", id)
	return nil
}

// ForecastSummary totals the forecasts of one kind. Annual summaries need a
// year and count recurring forecasts in every year; monthly summaries take
// every monthly forecast regardless of year.
func (s *LedgerService) ForecastSummary(ctx context.Context, kind core.ForecastKind, year *int) (core.ForecastSummary, error) {
	if kind == core.MonthlyForecast {
		year = nil
	}
	if year != nil {
		if err := core.ValidateYear(*year); err != nil {
			return core.ForecastSummary{}, err
		}
	}
	if !kind.Valid() || (kind == core.AnnualForecast && year == nil) {
		// reports the validation error without touching the store
		return core.SummarizeForecasts(kind, year, nil)
	}
	forecasts, err := s.store.ListForecasts(ctx, storage.ForecastFilter{Kind: kind, Year: year})
	if err != nil {
		return core.ForecastSummary{}, err
	}
	return core.SummarizeForecasts(kind, year, forecasts)
}

// UpcomingForecasts returns pending forecasts whose reminder is today or
// later, soonest first.
func (s *LedgerService) UpcomingForecasts(ctx context.Context, limit int) ([]core.Forecast, error) {
	if limit <= 0 {
		limit = UpcomingLimit
	}
	pending := false
	return s.store.ListForecasts(ctx, storage.ForecastFilter{
		Completed:    &pending,
		ReminderFrom: core.Today(),
		Limit:        limit,
	})
}
