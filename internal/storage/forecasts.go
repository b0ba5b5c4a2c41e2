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

// ForecastFilter narrows ListForecasts. Year applies the annual rule
// (year = Y OR recurring); Month matches monthly forecasts exactly.
// ReminderFrom/ReminderTo bound the reminder date as [from, to).
type ForecastFilter struct {
	Kind         core.ForecastKind
	Year         *int
	Month        *int
	Completed    *bool
	ReminderFrom core.Date
	ReminderTo   core.Date
	Limit        int
}

func (f ForecastFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		conds = append(conds, "f.forecast_type = ?")
		args = append(args, f.Kind)
	}
	if f.Year != nil && f.Kind != core.MonthlyForecast {
		conds = append(conds, "(f.year = ? OR f.is_recurring = 1)")
		args = append(args, *f.Year)
	}
	if f.Month != nil && f.Kind == core.MonthlyForecast {
		conds = append(conds, "f.month = ?")
		args = append(args, *f.Month)
	}
	if f.Completed != nil {
		conds = append(conds, "f.completed = ?")
		args = append(args, boolInt(*f.Completed))
	}
	if !f.ReminderFrom.IsZero() {
		conds = append(conds, "f.reminder_date >= ?")
		args = append(args, f.ReminderFrom)
	}
	if !f.ReminderTo.IsZero() {
		conds = append(conds, "f.reminder_date < ?")
		args = append(args, f.ReminderTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const forecastColumns = `f.id, f.description, f.amount_cents, f.category_id,
	COALESCE(c.name, ''), COALESCE(c.color, ''), f.reminder_date, f.year, f.month, f.notes,
	f.completed, f.is_recurring, f.forecast_type, f.created_at`

func scanForecast(s interface{ Scan(...any) error }) (core.Forecast, error) {
	var (
		f           core.Forecast
		year, month sql.NullInt64
		created     string
	)
	err := s.Scan(&f.ID, &f.Description, &f.Amount.Cents, &f.CategoryID, &f.CategoryName, &f.CategoryColor,
		&f.ReminderDate, &year, &month, &f.Notes, &f.Completed, &f.Recurring, &f.Kind, &created)
	f.Year = intPtr(year)
	f.Month = intPtr(month)
	f.CreatedAt = parseTimestamp(created)
	return f, err
}

// ListForecasts returns forecasts ordered by reminder date ascending.
func (r *SQLiteRepository) ListForecasts(ctx context.Context, filter ForecastFilter) ([]core.Forecast, error) {
	where, args := filter.where()
	q := `SELECT ` + forecastColumns + ` FROM forecasts f LEFT JOIN categories c ON c.id = f.category_id` +
		where + ` ORDER BY f.reminder_date ASC, f.id ASC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	out := []core.Forecast{}
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetForecast(ctx context.Context, id int64) (core.Forecast, error) {
	f, err := scanForecast(r.db.QueryRowContext(ctx, `SELECT `+forecastColumns+`
		FROM forecasts f LEFT JOIN categories c ON c.id = f.category_id WHERE f.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return f, core.NotFoundf("forecast %d not found", id)
	}
	if err != nil {
		return f, fmt.Errorf("get forecast %d: %w", id, err)
	}
	return f, nil
}

func (r *SQLiteRepository) CreateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, f.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO forecasts
			(description, amount_cents, category_id, reminder_date, year, month, notes, completed, is_recurring, forecast_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.Description, f.Amount.Cents, f.CategoryID, f.ReminderDate, nullInt(f.Year), nullInt(f.Month),
			f.Notes, boolInt(f.Completed), boolInt(f.Recurring), f.Kind, now())
		if err != nil {
			return fmt.Errorf("create forecast: %w", err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("forecast id: %w", err)
		}
		return nil
	})
	if err != nil {
		return f, err
	}
	slog.DebugContext(ctx, "Forecast row inserted", "id", f.ID, "type", f.Kind, "amount_cents", f.Amount.Cents)
	return r.GetForecast(ctx, f.ID)
}

func (r *SQLiteRepository) UpdateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, f.CategoryID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE forecasts SET description = ?, amount_cents = ?, category_id = ?,
			reminder_date = ?, year = ?, month = ?, notes = ?, completed = ?, is_recurring = ?, forecast_type = ?
			WHERE id = ?`,
			f.Description, f.Amount.Cents, f.CategoryID, f.ReminderDate, nullInt(f.Year), nullInt(f.Month),
			f.Notes, boolInt(f.Completed), boolInt(f.Recurring), f.Kind, f.ID)
		if err != nil {
			return fmt.Errorf("update forecast %d: %w", f.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NotFoundf("forecast %d not found", f.ID)
		}
		return nil
	})
	if err != nil {
		return f, err
	}
	return r.GetForecast(ctx, f.ID)
}

// ToggleForecast flips the completed flag and returns the new value.
func (r *SQLiteRepository) ToggleForecast(ctx context.Context, id int64) (bool, error) {
	var completed bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT completed FROM forecasts WHERE id = ?`, id).Scan(&completed)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundf("forecast %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get forecast %d: %w", id, err)
		}
		completed = !completed
		if _, err := tx.ExecContext(ctx, `UPDATE forecasts SET completed = ? WHERE id = ?`, boolInt(completed), id); err != nil {
			return fmt.Errorf("toggle forecast %d: %w", id, err)
		}
		return nil
	})
	return completed, err
}

func (r *SQLiteRepository) DeleteForecast(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forecasts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete forecast %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("forecast %d not found", id)
	}
	return nil
}
