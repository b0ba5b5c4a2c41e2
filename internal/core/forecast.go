package core

import (
	"cmp"
	"slices"
)

// ForecastSummary totals the forecasts of one kind. Year is nil for monthly
// summaries.
type ForecastSummary struct {
	Year       *int             `json:"year"`
	Kind       ForecastKind     `json:"forecast_type"`
	Total      Money            `json:"total"`
	Completed  Money            `json:"completed"`
	Pending    Money            `json:"pending"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// ForecastEligible reports whether f counts toward the summary of the given
// kind. Annual summaries take forecasts of that year plus every recurring
// one; monthly summaries take every monthly forecast, with no temporal
// filter.
func ForecastEligible(f Forecast, kind ForecastKind, year int) bool {
	if f.Kind != kind {
		return false
	}
	if kind == MonthlyForecast {
		return true
	}
	return f.Recurring || (f.Year != nil && *f.Year == year)
}

// SummarizeForecasts filters forecasts by eligibility and totals them.
// year is ignored for monthly summaries and required for annual ones.
func SummarizeForecasts(kind ForecastKind, year *int, forecasts []Forecast) (ForecastSummary, error) {
	if !kind.Valid() {
		return ForecastSummary{}, Validationf("invalid forecast type %q", kind)
	}
	var y int
	if kind == AnnualForecast {
		if year == nil {
			return ForecastSummary{}, Validationf("year is required for annual forecasts")
		}
		y = *year
	}

	s := ForecastSummary{Kind: kind, ByCategory: []CategoryAmount{}}
	if kind == AnnualForecast {
		s.Year = &y
	}

	index := make(map[int64]int)
	for _, f := range forecasts {
		if !ForecastEligible(f, kind, y) {
			continue
		}
		s.Total = s.Total.Add(f.Amount)
		if f.Completed {
			s.Completed = s.Completed.Add(f.Amount)
		}
		i, ok := index[f.CategoryID]
		if !ok {
			i = len(s.ByCategory)
			index[f.CategoryID] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{
				CategoryID: f.CategoryID,
				Name:       f.CategoryName,
				Color:      f.CategoryColor,
			})
		}
		s.ByCategory[i].Total = s.ByCategory[i].Total.Add(f.Amount)
		s.ByCategory[i].Count++
	}
	s.Pending = s.Total.Sub(s.Completed)
	sortCategoryAmounts(s.ByCategory)
	return s, nil
}

func sortCategoryAmounts(items []CategoryAmount) {
	slices.SortStableFunc(items, func(a, b CategoryAmount) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
