package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// DefaultCategoryNames are the categories seeded by migration and kept by
// DeleteAllData.
var DefaultCategoryNames = []string{
	"Salario", "Inversiones", "Otros Ingresos",
	"Alimentación", "Transporte", "Vivienda", "Servicios", "Entretenimiento",
	"Salud", "Educación", "Ropa", "Otros Gastos",
}

// ListCategories returns categories ordered by kind, then name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, color FROM categories ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, type, color FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return c, core.NotFoundf("category %d not found", id)
	}
	if err != nil {
		return c, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, type, color) VALUES (?, ?, ?)`,
		c.Name, c.Kind, c.Color)
	if err != nil {
		return c, duplicateName(err, "category", c.Name, "create")
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return c, fmt.Errorf("category id: %w", err)
	}
	slog.DebugContext(ctx, "Category row inserted", "id", c.ID, "name", c.Name, "type", c.Kind)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, type = ?, color = ? WHERE id = ?`,
		c.Name, c.Kind, c.Color, c.ID)
	if err != nil {
		return c, duplicateName(err, "category", c.Name, "update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return c, core.NotFoundf("category %d not found", c.ID)
	}
	return c, nil
}

// DeleteCategory removes a category that no transaction or forecast uses.
// Budget links to it are dropped.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "categories", id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("category %d not found", id)
		}

		n, err := count(ctx, tx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("count transactions for category %d: %w", id, err)
		}
		if n > 0 {
			return core.Conflictf("category has %d associated transactions; delete or reassign them first", n)
		}
		n, err = count(ctx, tx, `SELECT COUNT(*) FROM forecasts WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("count forecasts for category %d: %w", id, err)
		}
		if n > 0 {
			return core.Conflictf("category has %d associated forecasts; delete or reassign them first", n)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM budget_categories WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("unlink category %d from budgets: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		return nil
	})
}
