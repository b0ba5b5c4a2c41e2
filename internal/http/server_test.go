package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/export"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	svc := services.NewLedgerService(repo, nil)
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	s := NewServer(":0", svc, opts)
	t.Cleanup(func() {
		s.limiter.Stop()
		svc.Close()
	})
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func categoryID(t *testing.T, s *Server, name string) int64 {
	t.Helper()
	rec := do(t, s, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range decode[[]core.Category](t, rec) {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func postTx(t *testing.T, s *Server, kind core.Kind, catID int64, amount, date string) core.Transaction {
	t.Helper()
	body := fmt.Sprintf(`{"description":"mov","amount":%s,"type":%q,"category_id":%d,"date":%q}`, amount, kind, catID, date)
	rec := do(t, s, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[core.Transaction](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	m := decode[map[string]any](t, rec)
	assert.Contains(t, m, "requests")
	assert.Contains(t, m, "rate_limit")
}

func TestResponsesCarryRequestIDAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/categories", "")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decode[map[string]string](t, rec)["error"])
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"Mascotas","type":"expense"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Category](t, rec)
	assert.Equal(t, core.DefaultColor, created.Color)

	rec = do(t, s, http.MethodPost, "/api/categories", `{"name":"Mascotas","type":"expense"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/categories", `{"name":"X","type":"gift"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/categories/%d", created.ID), `{"name":"Animales","type":"expense","color":"#000000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Animales", decode[core.Category](t, rec).Name)

	rec = do(t, s, http.MethodPut, "/api/categories/9999", `{"name":"Nada","type":"expense"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postTx(t, s, core.Expense, created.ID, "10", "2024-03-01")
	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "associated transactions")
}

func TestTransactionRequestValidation(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed", `{"amount":`},
		{"unknown field", fmt.Sprintf(`{"amount":1,"type":"expense","category_id":%d,"date":"2024-01-01","extra":1}`, food)},
		{"missing amount", fmt.Sprintf(`{"type":"expense","category_id":%d,"date":"2024-01-01"}`, food)},
		{"zero amount", fmt.Sprintf(`{"amount":0,"type":"expense","category_id":%d,"date":"2024-01-01"}`, food)},
		{"negative amount", fmt.Sprintf(`{"amount":-5,"type":"expense","category_id":%d,"date":"2024-01-01"}`, food)},
		{"bad type", fmt.Sprintf(`{"amount":1,"type":"gift","category_id":%d,"date":"2024-01-01"}`, food)},
		{"bad date", fmt.Sprintf(`{"amount":1,"type":"expense","category_id":%d,"date":"2024-02-30"}`, food)},
		{"missing category", `{"amount":1,"type":"expense","date":"2024-01-01"}`},
		{"unknown category", `{"amount":1,"type":"expense","category_id":9999,"date":"2024-01-01"}`},
		{"trailing data", fmt.Sprintf(`{"amount":1,"type":"expense","category_id":%d,"date":"2024-01-01"} {}`, food)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestTransactionEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")
	salary := categoryID(t, s, "Salario")

	tx := postTx(t, s, core.Expense, food, `"12.50"`, "2024-03-10")
	assert.Equal(t, int64(1250), tx.Amount.Cents)
	postTx(t, s, core.Income, salary, "2000", "2024-03-01")
	postTx(t, s, core.Expense, food, "5", "2023-12-31")

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.Transaction](t, rec)
	assert.Equal(t, "Alimentación", got.CategoryName)
	assert.Equal(t, "2024-03-10", got.Date.String())

	rec = do(t, s, http.MethodGet, "/api/transactions?year=2024&type=expense", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Transaction](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/transactions?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[services.TransactionPage](t, rec)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Contains(t, rec.Body.String(), `"totalPages"`)

	rec = do(t, s, http.MethodGet, "/api/transactions?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID),
		fmt.Sprintf(`{"description":"super","amount":20,"type":"expense","category_id":%d,"date":"2024-03-11"}`, food))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2000), decode[core.Transaction](t, rec).Amount.Cents)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/transactions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")
	salary := categoryID(t, s, "Salario")
	postTx(t, s, core.Income, salary, "1000", "2024-03-01")
	postTx(t, s, core.Expense, food, "250.50", "2024-03-15")
	postTx(t, s, core.Expense, food, "100", "2023-06-15")

	rec := do(t, s, http.MethodGet, "/api/stats/monthly?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	monthly := decode[core.MonthlySummary](t, rec)
	assert.Equal(t, int64(100000), monthly.Income.Cents)
	assert.Equal(t, int64(25050), monthly.Expense.Cents)
	assert.Equal(t, int64(74950), monthly.Balance.Cents)

	rec = do(t, s, http.MethodGet, "/api/stats/monthly?year=2024&month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats/annual?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	annual := decode[core.AnnualSummary](t, rec)
	assert.Len(t, annual.Months, 12)
	assert.Equal(t, int64(74950), annual.Balance.Cents)

	rec = do(t, s, http.MethodGet, "/api/stats/annual?year=1800", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats/years", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2024, 2023}, decode[[]int](t, rec))

	rec = do(t, s, http.MethodGet, "/api/stats/calendar?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"2024-03-15"`)

	rec = do(t, s, http.MethodGet, "/api/stats/daily-balance?year=2024&month=3", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats/upcoming-forecasts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPeriodQueryValidation(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		path string
		code int
	}{
		{"/api/stats/monthly", http.StatusOK},
		{"/api/stats/monthly?year=2024", http.StatusOK},
		{"/api/stats/monthly?month=0", http.StatusBadRequest},
		{"/api/stats/monthly?year=0&month=3", http.StatusBadRequest},
		{"/api/stats/monthly?year=2024&month=x", http.StatusBadRequest},
		{"/api/stats/calendar?month=0", http.StatusBadRequest},
		{"/api/stats/daily-balance?year=0", http.StatusBadRequest},
		{"/api/budgets/results?month=0", http.StatusBadRequest},
		{"/api/stats/annual", http.StatusOK},
		{"/api/stats/annual?year=0", http.StatusBadRequest},
		{"/api/export/annual?year=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestSavingsEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/savings", `{"name":"Colchón","initial_balance":100,"target_amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decode[core.SavingsAccount](t, rec)
	assert.Equal(t, core.DefaultColor, account.Color)

	rec = do(t, s, http.MethodPost, "/api/savings", `{"name":"Colchón"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/savings", `{"name":"Otra","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/savings/movements",
		fmt.Sprintf(`{"account_id":%d,"type":"deposit","amount":50,"date":"2024-02-01"}`, account.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	movement := decode[core.SavingsMovement](t, rec)

	rec = do(t, s, http.MethodPost, "/api/savings/movements", `{"account_id":9999,"type":"deposit","amount":50,"date":"2024-02-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/savings/%d", account.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[core.SavingsBalance](t, rec)
	assert.Equal(t, int64(15000), balance.CurrentBalance.Cents)
	assert.Equal(t, 1, balance.MovementCount)

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/savings/%d/movements", account.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.SavingsMovement](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/savings/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[core.SavingsSummary](t, rec)
	assert.Equal(t, int64(15000), summary.TotalSaved.Cents)
	assert.Equal(t, 1, summary.AccountsCount)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/savings/%d", account.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/savings/movements/%d", movement.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/savings/%d", account.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDebtEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/debts", `{"name":"Coche","initial_amount":1000,"interest_rate":"4.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	debt := decode[core.DebtAccount](t, rec)
	assert.Equal(t, core.Other, debt.Type)
	assert.Equal(t, core.DefaultDebtColor, debt.Color)
	assert.InDelta(t, 4.5, debt.InterestRate, 1e-9)

	rec = do(t, s, http.MethodPost, "/api/debts", `{"name":"Mala","type":"lease"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, body := range []string{
		fmt.Sprintf(`{"debt_id":%d,"type":"payment","amount":200,"date":"2024-01-10"}`, debt.ID),
		fmt.Sprintf(`{"debt_id":%d,"type":"charge","amount":50,"date":"2024-02-10"}`, debt.ID),
	} {
		rec = do(t, s, http.MethodPost, "/api/debts/payments", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/debts/%d", debt.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[core.DebtBalance](t, rec)
	assert.Equal(t, int64(85000), balance.CurrentBalance.Cents)
	assert.Equal(t, int64(20000), balance.TotalPaid.Cents)
	require.NotNil(t, balance.LastPaymentDate)
	assert.Equal(t, "2024-02-10", balance.LastPaymentDate.String())

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/debts/%d/payments", debt.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.DebtPayment](t, rec), 2)

	rec = do(t, s, http.MethodGet, "/api/debts/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[core.DebtSummary](t, rec)
	assert.Equal(t, int64(85000), summary.TotalDebt.Cents)
	assert.Equal(t, int64(100000), summary.TotalOriginal.Cents)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/debts/%d", debt.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/debts/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBudgetEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")
	postTx(t, s, core.Expense, food, "150", "2024-03-05")

	rec := do(t, s, http.MethodPost, "/api/budgets", fmt.Sprintf(`{"name":"Comida","amount":300,"category_ids":[%d]}`, food))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	budget := decode[core.Budget](t, rec)
	require.Len(t, budget.Categories, 1)

	rec = do(t, s, http.MethodPost, "/api/budgets", `{"name":"Sin importe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/budgets", `{"name":"Malo","amount":10,"category_ids":[0]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/budgets/results?year=2024&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]core.BudgetResult](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, int64(15000), results[0].Spent.Cents)
	assert.Equal(t, int64(15000), results[0].Remaining.Cents)
	assert.Equal(t, int64(50), results[0].Percentage)

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/budgets/%d", budget.ID), `{"name":"Comida","amount":300,"category_ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[core.Budget](t, rec).Categories)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/budgets/%d", budget.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForecastEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")

	rec := do(t, s, http.MethodPost, "/api/forecasts",
		fmt.Sprintf(`{"description":"Seguro","amount":400,"category_id":%d,"reminder_date":"2024-06-01","year":2024}`, food))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	forecast := decode[core.Forecast](t, rec)
	assert.Equal(t, core.AnnualForecast, forecast.Kind)
	assert.False(t, forecast.Completed)

	rec = do(t, s, http.MethodPost, "/api/forecasts",
		fmt.Sprintf(`{"description":"Luz","amount":60,"category_id":%d,"reminder_date":"2024-06-05","forecast_type":"monthly","year":2024,"month":6}`, food))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPatch, fmt.Sprintf("/api/forecasts/%d/toggle", forecast.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"completed":true}`, forecast.ID), rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/forecasts?forecast_type=annual&completed=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Forecast](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/forecasts/summary?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[core.ForecastSummary](t, rec)
	assert.Equal(t, int64(40000), summary.Total.Cents)
	assert.Equal(t, int64(40000), summary.Completed.Cents)
	assert.Zero(t, summary.Pending.Cents)

	rec = do(t, s, http.MethodGet, "/api/forecasts/summary", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/forecasts/summary?forecast_type=monthly", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(6000), decode[core.ForecastSummary](t, rec).Pending.Cents)

	rec = do(t, s, http.MethodPatch, "/api/forecasts/9999/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/categories/%d", food), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAllEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")
	postTx(t, s, core.Expense, food, "10", "2024-01-01")

	rec := do(t, s, http.MethodPost, "/api/settings/delete-all", `{"confirm":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/settings/delete-all", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/settings/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[storage.DataStats](t, rec).Transactions)

	rec = do(t, s, http.MethodPost, "/api/settings/delete-all", fmt.Sprintf(`{"confirm":%q}`, services.DeleteAllConfirmation))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"deleted"`)

	rec = do(t, s, http.MethodGet, "/api/settings/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[storage.DataStats](t, rec)
	assert.Zero(t, stats.Transactions)
	assert.Equal(t, int64(len(storage.DefaultCategoryNames)), stats.Categories)
}

func TestExportAnnualEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	food := categoryID(t, s, "Alimentación")
	postTx(t, s, core.Expense, food, "12.5", "2024-05-01")

	rec := do(t, s, http.MethodGet, "/api/export/annual?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.Filename(2024))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.TransactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rec = do(t, s, http.MethodGet, "/api/export/annual?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRateLimitedAPI(t *testing.T) {
	s := newTestServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	rec := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// health probes sit outside the limiter
	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	s := newTestServer(t, Options{})
	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `","type":"expense"}`
	rec := do(t, s, http.MethodPost, "/api/categories", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
