package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets/memory"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

func setup(t *testing.T) (*services.LedgerService, *memory.Store, *LedgerWorker) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	svc := services.NewLedgerService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	mirror := memory.New()
	return svc, mirror, NewLedgerWorker(svc, mirror)
}

func foodCategory(t *testing.T, svc *services.LedgerService) int64 {
	t.Helper()
	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == "Alimentación" {
			return c.ID
		}
	}
	t.Fatal("category not seeded")
	return 0
}

func expense(t *testing.T, svc *services.LedgerService, catID, cents int64, date core.Date) core.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Description: "super", Amount: core.NewMoney(cents), Kind: core.Expense, CategoryID: catID, Date: date,
	})
	require.NoError(t, err)
	return tx
}

func TestHandleCreatedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, mirror, w := setup(t)
	tx := expense(t, svc, foodCategory(t, svc), 2500, core.NewDate(2024, 5, 10))

	ev := amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024)
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	rows, err := mirror.ListRows(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tx.ID, rows[0].ID)
	assert.Equal(t, "Alimentación", rows[0].Category)
}

func TestHandleUpdatedMovesRowAcrossYears(t *testing.T) {
	ctx := context.Background()
	svc, mirror, w := setup(t)
	tx := expense(t, svc, foodCategory(t, svc), 2500, core.NewDate(2023, 12, 31))
	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2023)))

	tx.Date = core.NewDate(2024, 1, 1)
	tx.Amount = core.NewMoney(3000)
	_, err := svc.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionUpdated, tx.ID, 2023)))

	old, _ := mirror.ListRows(ctx, 2023)
	assert.Empty(t, old)
	rows, _ := mirror.ListRows(ctx, 2024)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3000), rows[0].Amount.Cents)
}

func TestHandleDeleted(t *testing.T) {
	ctx := context.Background()
	svc, mirror, w := setup(t)
	tx := expense(t, svc, foodCategory(t, svc), 2500, core.NewDate(2024, 5, 10))
	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024)))

	require.NoError(t, svc.DeleteTransaction(ctx, tx.ID))
	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionDeleted, tx.ID, 2024)))

	rows, _ := mirror.ListRows(ctx, 2024)
	assert.Empty(t, rows)

	// a create event for a transaction that is gone is acknowledged
	assert.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024)))
}

func TestHandleIgnoresOtherKinds(t *testing.T) {
	_, mirror, w := setup(t)
	ev := amqp.NewLedgerEvent(amqp.EventDebtPayment, amqp.ActionCreated, 1, 2024)
	require.NoError(t, w.HandleLedgerEvent(context.Background(), ev))
	rows, _ := mirror.ListRows(context.Background(), 2024)
	assert.Empty(t, rows)
}

type failingMirror struct{ sheets.Mirror }

func (failingMirror) ListRows(context.Context, int) ([]sheets.LedgerRow, error) { return nil, nil }
func (failingMirror) AppendRow(context.Context, sheets.LedgerRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleMirrorErrorRequeues(t *testing.T) {
	svc, _, _ := setup(t)
	tx := expense(t, svc, foodCategory(t, svc), 100, core.NewDate(2024, 1, 2))
	w := NewLedgerWorker(svc, failingMirror{})

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestOverBudgetExpenseStillMirrored(t *testing.T) {
	ctx := context.Background()
	svc, mirror, w := setup(t)
	food := foodCategory(t, svc)
	_, err := svc.CreateBudget(ctx, core.Budget{Name: "Comida", Amount: core.NewMoney(1000)}, []int64{food})
	require.NoError(t, err)

	tx := expense(t, svc, food, 5000, core.NewDate(2024, 3, 3))
	require.NoError(t, w.HandleLedgerEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024)))

	over, err := svc.OverBudget(ctx, food, 2024, 3)
	require.NoError(t, err)
	require.Len(t, over, 1)
	assert.Equal(t, int64(500), over[0].Percentage)

	rows, _ := mirror.ListRows(ctx, 2024)
	assert.Len(t, rows, 1)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	svc, mirror, w := setup(t)
	food := foodCategory(t, svc)
	first := expense(t, svc, food, 100, core.NewDate(2024, 1, 1))
	expense(t, svc, food, 200, core.NewDate(2024, 2, 1))
	expense(t, svc, food, 300, core.NewDate(2024, 3, 1))
	expense(t, svc, food, 400, core.NewDate(2023, 3, 1))

	_, err := mirror.AppendRow(ctx, sheets.RowFromTransaction(first))
	require.NoError(t, err)

	n, err := w.Reconcile(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, _ := mirror.ListRows(ctx, 2024)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-02-01", rows[1].Date.String())
	assert.Equal(t, "2024-03-01", rows[2].Date.String())

	n, err = w.Reconcile(ctx, 2024)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type countingMirror struct {
	*memory.Store
	lists int
}

func (m *countingMirror) ListRows(ctx context.Context, year int) ([]sheets.LedgerRow, error) {
	m.lists++
	return m.Store.ListRows(ctx, year)
}

func TestRedeliveredEventSkipsMirror(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)
	mirror := &countingMirror{Store: memory.New()}
	w := NewLedgerWorker(svc, mirror)
	tx := expense(t, svc, foodCategory(t, svc), 700, core.NewDate(2024, 4, 4))

	ev := amqp.NewLedgerEvent(amqp.EventTransaction, amqp.ActionCreated, tx.ID, 2024)
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))
	assert.Equal(t, 1, mirror.lists)

	// expired entries are dropped by cleanup, not by the handler
	assert.Zero(t, w.ProcessedCache().CleanExpired())
}
