package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
// From is inclusive and To exclusive.
type TransactionFilter struct {
	From       core.Date
	To         core.Date
	Kind       core.Kind
	CategoryID int64
	Limit      int
	Offset     int
}

func (f TransactionFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "t.date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "t.date < ?")
		args = append(args, f.To)
	}
	if f.Kind != "" {
		conds = append(conds, "t.type = ?")
		args = append(args, f.Kind)
	}
	if f.CategoryID > 0 {
		conds = append(conds, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const transactionColumns = `t.id, t.description, t.amount_cents, t.type, t.category_id,
	COALESCE(c.name, ''), COALESCE(c.color, ''), t.date, t.created_at`

func scanTransaction(s interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t       core.Transaction
		created string
	)
	err := s.Scan(&t.ID, &t.Description, &t.Amount.Cents, &t.Kind, &t.CategoryID,
		&t.CategoryName, &t.CategoryColor, &t.Date, &created)
	t.CreatedAt = parseTimestamp(created)
	return t, err
}

// ListTransactions returns transactions newest first, ties broken by
// creation order descending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := f.where()
	q := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id` + where + `
		ORDER BY t.date DESC, t.created_at DESC, t.id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTransactions counts the rows ListTransactions would return without
// pagination.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	where, args := f.where()
	n, err := count(ctx, r.db, `SELECT COUNT(*) FROM transactions t`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, core.NotFoundf("transaction %d not found", id)
	}
	if err != nil {
		return t, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, t.CategoryID); err != nil {
			return err
		}
		created := now()
		res, err := tx.ExecContext(ctx, `INSERT INTO transactions
			(description, amount_cents, type, category_id, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			t.Description, t.Amount.Cents, t.Kind, t.CategoryID, t.Date, created)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}
		t.CreatedAt = parseTimestamp(created)
		return nil
	})
	if err != nil {
		return t, err
	}

	slog.DebugContext(ctx, "Transaction row inserted",
		"id", t.ID,
		"type", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, t.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE transactions
			SET description = ?, amount_cents = ?, type = ?, category_id = ?, date = ? WHERE id = ?`,
			t.Description, t.Amount.Cents, t.Kind, t.CategoryID, t.Date, t.ID)
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFoundf("transaction %d not found", t.ID)
		}
		return nil
	})
	if err != nil {
		return t, err
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("transaction %d not found", id)
	}
	return nil
}

// AvailableYears lists the distinct years that have transactions, newest
// first.
func (r *SQLiteRepository) AvailableYears(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(substr(date, 1, 4) AS INTEGER) AS y FROM transactions ORDER BY y DESC`)
	if err != nil {
		return nil, fmt.Errorf("available years: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// SumExpenses totals expense transactions in the given categories within
// [from, to).
func (r *SQLiteRepository) SumExpenses(ctx context.Context, categoryIDs []int64, from, to core.Date) (core.Money, error) {
	if len(categoryIDs) == 0 {
		return core.Money{}, nil
	}
	args := make([]any, 0, len(categoryIDs)+3)
	args = append(args, core.Expense, from, to)
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	var cents int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE type = ? AND date >= ? AND date < ? AND category_id IN (`+placeholders(len(categoryIDs))+`)`,
		args...).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.NewMoney(cents), nil
}

func requireCategory(ctx context.Context, q queryer, id int64) error {
	ok, err := exists(ctx, q, "categories", id)
	if err != nil {
		return err
	}
	if !ok {
		return core.Validationf("category %d does not exist", id)
	}
	return nil
}
