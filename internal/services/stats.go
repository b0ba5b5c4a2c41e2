package services

import (
	"context"
	"io"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/export"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

func (s *LedgerService) monthTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := core.MonthWindow(year, month)
	return s.store.ListTransactions(ctx, storage.TransactionFilter{From: from, To: to})
}

// MonthlySummary totals income and expense of one month.
func (s *LedgerService) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	txs, err := s.monthTransactions(ctx, year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return core.SummarizeMonth(year, month, txs), nil
}

// AnnualSummary totals one year with a twelve-entry month breakdown.
func (s *LedgerService) AnnualSummary(ctx context.Context, year int) (core.AnnualSummary, error) {
	if err := core.ValidateYear(year); err != nil {
		return core.AnnualSummary{}, err
	}
	from, to := core.YearWindow(year)
	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{From: from, To: to})
	if err != nil {
		return core.AnnualSummary{}, err
	}
	return core.SummarizeYear(year, txs), nil
}

// ExportAnnual writes the year's summary and transactions as an xlsx
// workbook.
func (s *LedgerService) ExportAnnual(ctx context.Context, year int, w io.Writer) error {
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	from, to := core.YearWindow(year)
	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{From: from, To: to})
	if err != nil {
		return err
	}
	return export.AnnualReport(w, core.SummarizeYear(year, txs), txs)
}

// AvailableYears lists the years with transactions, newest first.
func (s *LedgerService) AvailableYears(ctx context.Context) ([]int, error) {
	return s.store.AvailableYears(ctx)
}

// Calendar groups the month's transactions, savings movements and
// forecast reminders by day.
func (s *LedgerService) Calendar(ctx context.Context, year, month int) (core.Calendar, error) {
	txs, err := s.monthTransactions(ctx, year, month)
	if err != nil {
		return core.Calendar{}, err
	}
	from, to := core.MonthWindow(year, month)
	movements, err := s.store.ListSavingsMovements(ctx, storage.MovementFilter{From: from, To: to})
	if err != nil {
		return core.Calendar{}, err
	}
	forecasts, err := s.store.ListForecasts(ctx, storage.ForecastFilter{ReminderFrom: from, ReminderTo: to})
	if err != nil {
		return core.Calendar{}, err
	}
	return core.BuildCalendar(year, month, txs, movements, forecasts), nil
}

// DailyBalance returns the running balance of every day of the month.
func (s *LedgerService) DailyBalance(ctx context.Context, year, month int) (core.DailyBalance, error) {
	txs, err := s.monthTransactions(ctx, year, month)
	if err != nil {
		return core.DailyBalance{}, err
	}
	return core.BuildDailyBalance(year, month, txs), nil
}
