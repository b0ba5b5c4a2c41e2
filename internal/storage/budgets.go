package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// ListBudgets returns budgets ordered by name with their categories.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, color, created_at FROM budgets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	rows.Close()

	links, err := r.budgetCategories(ctx, r.db)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		if refs, ok := links[budgets[i].ID]; ok {
			budgets[i].Categories = refs
		}
	}
	return budgets, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, name, amount_cents, color, created_at FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, core.NotFoundf("budget %d not found", id)
	}
	if err != nil {
		return b, fmt.Errorf("get budget %d: %w", id, err)
	}
	links, err := r.budgetCategories(ctx, r.db, id)
	if err != nil {
		return b, err
	}
	if refs, ok := links[id]; ok {
		b.Categories = refs
	}
	return b, nil
}

// CreateBudget inserts the budget and links it to categoryIDs. Unknown or
// repeated category ids are ignored.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO budgets (name, amount_cents, color, created_at) VALUES (?, ?, ?, ?)`,
			b.Name, b.Amount.Cents, b.Color, now())
		if err != nil {
			return duplicateName(err, "budget", b.Name, "create")
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("budget id: %w", err)
		}
		return linkCategories(ctx, tx, b.ID, categoryIDs)
	})
	if err != nil {
		return b, err
	}
	slog.DebugContext(ctx, "Budget row inserted", "id", b.ID, "name", b.Name, "categories", len(categoryIDs))
	return r.GetBudget(ctx, b.ID)
}

// UpdateBudget updates the budget and replaces its category set.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE budgets SET name = ?, amount_cents = ?, color = ? WHERE id = ?`,
			b.Name, b.Amount.Cents, b.Color, b.ID)
		if err != nil {
			return duplicateName(err, "budget", b.Name, "update")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFoundf("budget %d not found", b.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM budget_categories WHERE budget_id = ?`, b.ID); err != nil {
			return fmt.Errorf("clear budget %d categories: %w", b.ID, err)
		}
		return linkCategories(ctx, tx, b.ID, categoryIDs)
	})
	if err != nil {
		return b, err
	}
	return r.GetBudget(ctx, b.ID)
}

// DeleteBudget removes the budget and its category links.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budget_categories WHERE budget_id = ?`, id); err != nil {
			return fmt.Errorf("clear budget %d categories: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete budget %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFoundf("budget %d not found", id)
		}
		return nil
	})
}

func scanBudget(s interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b       core.Budget
		created string
	)
	err := s.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.Color, &created)
	b.CreatedAt = parseTimestamp(created)
	b.Categories = []core.CategoryRef{}
	return b, err
}

func linkCategories(ctx context.Context, tx *sql.Tx, budgetID int64, categoryIDs []int64) error {
	for _, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO budget_categories (budget_id, category_id)
			SELECT ?, id FROM categories WHERE id = ?`, budgetID, cid); err != nil {
			return fmt.Errorf("link budget %d to category %d: %w", budgetID, cid, err)
		}
	}
	return nil
}

type rowsQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// budgetCategories loads category links keyed by budget id, optionally for
// a single budget.
func (r *SQLiteRepository) budgetCategories(ctx context.Context, q rowsQueryer, budgetID ...int64) (map[int64][]core.CategoryRef, error) {
	query := `SELECT bc.budget_id, c.id, c.name, c.color
		FROM budget_categories bc JOIN categories c ON c.id = bc.category_id`
	var args []any
	if len(budgetID) > 0 {
		query += ` WHERE bc.budget_id = ?`
		args = append(args, budgetID[0])
	}
	query += ` ORDER BY c.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budget categories: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]core.CategoryRef)
	for rows.Next() {
		var (
			bid int64
			c   core.CategoryRef
		)
		if err := rows.Scan(&bid, &c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan budget category: %w", err)
		}
		out[bid] = append(out[bid], c)
	}
	return out, rows.Err()
}
