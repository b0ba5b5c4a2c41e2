package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	ports "github.com/EleazarRC/contabilidad-personal/internal/sheets"
)

// fakeSheets serves the values endpoints used by Client from memory.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]any
	gets   int
}

func splitRange(rng string) (sheet string, row int) {
	i := strings.LastIndex(rng, "!")
	sheet, cells := rng[:i], rng[i+1:]
	first := strings.SplitN(cells, ":", 2)[0]
	row, _ = strconv.Atoi(strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return sheet, row
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := strings.Index(r.URL.Path, "/values/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[i+len("/values/"):]
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		sheet, row := splitRange(strings.TrimSuffix(rng, ":clear"))
		if row > 0 && row <= len(f.sheets[sheet]) {
			f.sheets[sheet][row-1] = []any{}
		}
		json.NewEncoder(w).Encode(map[string]any{"clearedRange": rng})
	case r.Method == http.MethodGet:
		f.gets++
		sheet, _ := splitRange(rng)
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.sheets[sheet]})
	case r.Method == http.MethodPut:
		sheet, row := splitRange(rng)
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for len(f.sheets[sheet]) < row {
			f.sheets[sheet] = append(f.sheets[sheet], []any{})
		}
		f.sheets[sheet][row-1] = vr.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id", "")
}

func ledgerRow(id int64, day int) ports.LedgerRow {
	return ports.LedgerRow{
		ID:          id,
		Date:        core.NewDate(2024, 4, day),
		Kind:        core.Expense,
		Description: "Mercadona",
		Category:    "Alimentación",
		Amount:      core.NewMoney(4599),
	}
}

func TestClient_AppendListDelete(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSheets{sheets: map[string][][]any{
		"2024 Movimientos": {{"ID", "Fecha", "Tipo", "Descripción", "Categoría", "Importe"}},
	}}
	c := newFakeClient(t, fake)

	ref, err := c.AppendRow(ctx, ledgerRow(7, 3))
	require.NoError(t, err)
	assert.Equal(t, "2024 Movimientos!A2:F2", ref)

	ref, err = c.AppendRow(ctx, ledgerRow(8, 4))
	require.NoError(t, err)
	assert.Equal(t, "2024 Movimientos!A3:F3", ref)
	assert.Equal(t, 1, fake.gets, "second append should use the cached row count")

	rows, err := c.ListRows(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(7), rows[0].ID)
	assert.Equal(t, "2024-04-03", rows[0].Date.String())
	assert.Equal(t, core.Expense, rows[0].Kind)
	assert.Equal(t, int64(4599), rows[0].Amount.Cents)
	assert.Equal(t, "Alimentación", rows[0].Category)

	require.NoError(t, c.DeleteRow(ctx, 2024, 7))
	require.NoError(t, c.DeleteRow(ctx, 2024, 404))

	rows, err = c.ListRows(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(8), rows[0].ID)
}

func TestClient_AppendStartsNewYearSheet(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{}}
	c := newFakeClient(t, fake)

	row := ledgerRow(1, 1)
	row.Date = core.NewDate(2025, 1, 1)
	ref, err := c.AppendRow(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, "2025 Movimientos!A1:F1", ref)
}

func TestClient_AppendValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test"}

	_, err := c.AppendRow(context.Background(), ports.LedgerRow{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = c.AppendRow(context.Background(), ledgerRow(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestRowCacheExpiration(t *testing.T) {
	c := NewWithService(nil, "id", "")
	c.cacheValidDuration = 50 * time.Millisecond

	c.storeRowCount("2024 Movimientos", 10)
	c.mu.Lock()
	cached := c.rowCache["2024 Movimientos"]
	c.mu.Unlock()
	assert.Equal(t, 10, cached.rows)
	assert.True(t, time.Now().Before(cached.expiresAt))

	c.invalidateRowCache("2024 Movimientos")
	c.mu.Lock()
	_, ok := c.rowCache["2024 Movimientos"]
	c.mu.Unlock()
	assert.False(t, ok)
}

func TestParseLedgerRows(t *testing.T) {
	values := [][]any{
		{"ID", "Fecha", "Tipo", "Descripción", "Categoría", "Importe"},
		{float64(3), "2024-02-01", "Income", "Nómina", "Salario", "2000.00"},
		{},
		{"x", "2024-02-01", "expense", "bad id", "", "1"},
		{float64(4), "01/02/2024", "expense", "bad date", "", "1"},
		{float64(5), "2024-02-03", "expense", "Cena", "Entretenimiento", "35,5"},
		{float64(6), "2024-02-03", "expense"},
	}
	rows := parseLedgerRows(values)
	require.Len(t, rows, 2)
	assert.Equal(t, core.Income, rows[0].Kind)
	assert.Equal(t, int64(200000), rows[0].Amount.Cents)
	assert.Equal(t, int64(3550), rows[1].Amount.Cents)
}

func TestRowValues(t *testing.T) {
	got := rowValues(ledgerRow(12, 9))
	assert.Equal(t, []any{int64(12), "2024-04-09", "expense", "Mercadona", "Alimentación", "45.99"}, got)
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Movimientos", 2024, "2024 Movimientos"},
		{"  Movimientos  ", 2025, "2025 Movimientos"},
		{"2023 Movimientos", 2024, "2023 Movimientos"},
		{"1234 Movimientos", 2024, "2024 1234 Movimientos"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())

	_, err = New(context.Background(), Config{SpreadsheetID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/nonexistent/sa.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}
