package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/cache"
	"github.com/EleazarRC/contabilidad-personal/internal/core"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets"
)

// Source is the read side of the ledger the worker needs.
type Source interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, q services.TransactionQuery) ([]core.Transaction, error)
	OverBudget(ctx context.Context, categoryID int64, year, month int) ([]core.BudgetResult, error)
}

// LedgerWorker mirrors transactions to the spreadsheet and raises budget
// alerts as ledger events arrive.
type LedgerWorker struct {
	source Source
	mirror sheets.Mirror

	// events already handled, so broker redeliveries after a lost ack
	// skip the sheet round trip
	processed *cache.LRUCache[struct{}]
}

const (
	processedCacheSize = 4096
	processedCacheTTL  = time.Hour
)

func NewLedgerWorker(source Source, mirror sheets.Mirror) *LedgerWorker {
	return &LedgerWorker{
		source:    source,
		mirror:    mirror,
		processed: cache.NewLRUCache[struct{}](processedCacheSize, processedCacheTTL),
	}
}

// ProcessedCache exposes the redelivery cache for periodic cleanup.
func (w *LedgerWorker) ProcessedCache() cache.Cleaner {
	return w.processed
}

func eventKey(ev *amqp.LedgerEvent) string {
	return fmt.Sprintf("%s:%s:%d:%d", ev.Kind, ev.Action, ev.ID, ev.Timestamp.UnixNano())
}

// HandleLedgerEvent processes one event. A returned error requeues the
// message.
func (w *LedgerWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	fields := applog.NewFields().
		WithComponent(applog.ComponentWorker).
		WithEntity(string(ev.Kind), ev.ID).
		WithOperation(string(ev.Action)).
		WithPeriod(ev.Year, 0)
	slog.InfoContext(ctx, "Processing ledger event", fields.ToSlice()...)

	if ev.Kind != amqp.EventTransaction {
		// savings movements and debt payments are not mirrored
		return nil
	}

	key := eventKey(ev)
	if _, seen := w.processed.Get(key); seen {
		slog.DebugContext(ctx, "Ledger event already processed, skipping", "id", ev.ID, "action", ev.Action)
		return nil
	}

	var err error
	switch ev.Action {
	case amqp.ActionDeleted:
		err = w.removeRow(ctx, ev.Year, ev.ID)
	case amqp.ActionCreated, amqp.ActionUpdated:
		err = w.syncTransaction(ctx, ev)
	default:
		slog.WarnContext(ctx, "Unknown ledger event action, dropping", "action", ev.Action, "id", ev.ID)
		return nil
	}
	if err != nil {
		return err
	}
	w.processed.Set(key, struct{}{})
	return nil
}

func (w *LedgerWorker) syncTransaction(ctx context.Context, ev *amqp.LedgerEvent) error {
	tx, err := w.source.GetTransaction(ctx, ev.ID)
	if core.IsNotFound(err) {
		// deleted before we got here; the delete event cleans up
		slog.WarnContext(ctx, "Transaction no longer exists, skipping", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if ev.Action == amqp.ActionUpdated && ev.Year != 0 {
		if err := w.removeRow(ctx, ev.Year, tx.ID); err != nil {
			return err
		}
	}

	if ev.Action == amqp.ActionCreated {
		mirrored, err := w.isMirrored(ctx, tx)
		if err != nil {
			return err
		}
		if mirrored {
			slog.InfoContext(ctx, "Transaction already mirrored, skipping append", "id", tx.ID)
			return nil
		}
	}

	if err := w.appendRow(ctx, tx); err != nil {
		return err
	}

	if tx.Kind == core.Expense {
		w.checkBudgets(ctx, tx)
	}
	return nil
}

func (w *LedgerWorker) isMirrored(ctx context.Context, tx core.Transaction) (bool, error) {
	rows, err := w.mirror.ListRows(ctx, tx.Date.Year())
	if err != nil {
		return false, fmt.Errorf("list sheet rows: %w", err)
	}
	for _, r := range rows {
		if r.ID == tx.ID {
			return true, nil
		}
	}
	return false, nil
}

func (w *LedgerWorker) appendRow(ctx context.Context, tx core.Transaction) error {
	ref, err := w.mirror.AppendRow(ctx, sheets.RowFromTransaction(tx))
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount", tx.Amount.String())
	return nil
}

func (w *LedgerWorker) removeRow(ctx context.Context, year int, id int64) error {
	if year == 0 {
		slog.WarnContext(ctx, "Event without year, cannot locate sheet row", "id", id)
		return nil
	}
	if err := w.mirror.DeleteRow(ctx, year, id); err != nil {
		return fmt.Errorf("delete sheet row: %w", err)
	}
	slog.InfoContext(ctx, "Removed mirrored transaction", "id", id, "year", year)
	return nil
}

// checkBudgets logs an alert for every budget the expense pushed past its
// cap. Failures are logged only; the row is already mirrored.
func (w *LedgerWorker) checkBudgets(ctx context.Context, tx core.Transaction) {
	over, err := w.source.OverBudget(ctx, tx.CategoryID, tx.Date.Year(), tx.Date.Month())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to check budgets", "transaction_id", tx.ID, "error", err)
		return
	}
	for _, r := range over {
		slog.WarnContext(ctx, "Budget exceeded",
			"budget_id", r.ID,
			"budget", r.Name,
			"year", r.Year,
			"month", r.Month,
			"spent", r.Spent.String(),
			"amount", r.Amount.String(),
			"percentage", r.Percentage,
			"transaction_id", tx.ID)
	}
}

// Reconcile appends every transaction of year missing from the sheet. It
// recovers from events lost while the worker was down.
func (w *LedgerWorker) Reconcile(ctx context.Context, year int) (int, error) {
	rows, err := w.mirror.ListRows(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("list sheet rows: %w", err)
	}
	mirrored := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		mirrored[r.ID] = struct{}{}
	}

	txs, err := w.source.ListTransactions(ctx, services.TransactionQuery{Year: year})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	appended, failed := 0, 0
	// oldest first so the sheet reads chronologically
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		if _, ok := mirrored[tx.ID]; ok {
			continue
		}
		if err := w.appendRow(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during reconcile", "id", tx.ID, "error", err)
			failed++
			continue
		}
		appended++
	}

	slog.InfoContext(ctx, "Reconcile completed",
		"year", year,
		"transactions", len(txs),
		"appended", appended,
		"errors", failed)
	return appended, nil
}
