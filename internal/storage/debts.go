package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

const debtColumns = `id, name, type, initial_amount_cents, interest_rate, color, created_at`

func scanDebt(s interface{ Scan(...any) error }) (core.DebtAccount, error) {
	var (
		d       core.DebtAccount
		created string
	)
	err := s.Scan(&d.ID, &d.Name, &d.Type, &d.InitialAmount.Cents, &d.InterestRate, &d.Color, &created)
	d.CreatedAt = parseTimestamp(created)
	return d, err
}

func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.DebtAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	out := []core.DebtAccount{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.DebtAccount, error) {
	d, err := scanDebt(r.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return d, core.NotFoundf("debt %d not found", id)
	}
	if err != nil {
		return d, fmt.Errorf("get debt %d: %w", id, err)
	}
	return d, nil
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error) {
	created := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO debts
		(name, type, initial_amount_cents, interest_rate, color, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Name, d.Type, d.InitialAmount.Cents, d.InterestRate, d.Color, created)
	if err != nil {
		return d, duplicateName(err, "debt", d.Name, "create")
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return d, fmt.Errorf("debt id: %w", err)
	}
	d.CreatedAt = parseTimestamp(created)
	slog.DebugContext(ctx, "Debt row inserted", "id", d.ID, "name", d.Name, "type", d.Type)
	return d, nil
}

func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE debts
		SET name = ?, type = ?, initial_amount_cents = ?, interest_rate = ?, color = ? WHERE id = ?`,
		d.Name, d.Type, d.InitialAmount.Cents, d.InterestRate, d.Color, d.ID)
	if err != nil {
		return d, duplicateName(err, "debt", d.Name, "update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return d, core.NotFoundf("debt %d not found", d.ID)
	}
	return r.GetDebt(ctx, d.ID)
}

// DeleteDebt refuses to delete a debt that still has payments.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "debts", id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("debt %d not found", id)
		}
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM debt_payments WHERE debt_id = ?`, id)
		if err != nil {
			return fmt.Errorf("count payments for debt %d: %w", id, err)
		}
		if n > 0 {
			return core.Conflictf("debt has %d payments; delete them first", n)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete debt %d: %w", id, err)
		}
		return nil
	})
}

const paymentColumns = `p.id, p.debt_id, p.type, p.amount_cents, p.description, p.date, p.created_at,
	COALESCE(d.name, ''), COALESCE(d.color, '')`

func scanPayment(s interface{ Scan(...any) error }) (core.DebtPayment, error) {
	var (
		p       core.DebtPayment
		created string
	)
	err := s.Scan(&p.ID, &p.DebtID, &p.Kind, &p.Amount.Cents, &p.Description, &p.Date, &created,
		&p.DebtName, &p.DebtColor)
	p.CreatedAt = parseTimestamp(created)
	return p, err
}

// ListDebtPayments returns payments newest first. debtID 0 lists every
// payment.
func (r *SQLiteRepository) ListDebtPayments(ctx context.Context, debtID int64) ([]core.DebtPayment, error) {
	q := `SELECT ` + paymentColumns + ` FROM debt_payments p LEFT JOIN debts d ON d.id = p.debt_id`
	var args []any
	if debtID > 0 {
		q += ` WHERE p.debt_id = ?`
		args = append(args, debtID)
	}
	q += ` ORDER BY p.date DESC, p.created_at DESC, p.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list debt payments: %w", err)
	}
	defer rows.Close()

	out := []core.DebtPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateDebtPayment records a payment or charge; the debt must exist.
func (r *SQLiteRepository) CreateDebtPayment(ctx context.Context, p core.DebtPayment) (core.DebtPayment, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "debts", p.DebtID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("debt %d not found", p.DebtID)
		}
		created := now()
		res, err := tx.ExecContext(ctx, `INSERT INTO debt_payments
			(debt_id, type, amount_cents, description, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.DebtID, p.Kind, p.Amount.Cents, p.Description, p.Date, created)
		if err != nil {
			return fmt.Errorf("create debt payment: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("debt payment id: %w", err)
		}
		p.CreatedAt = parseTimestamp(created)
		return nil
	})
	if err != nil {
		return p, err
	}
	slog.DebugContext(ctx, "Debt payment row inserted",
		"id", p.ID, "debt_id", p.DebtID, "type", p.Kind, "amount_cents", p.Amount.Cents)
	return p, nil
}

func (r *SQLiteRepository) DeleteDebtPayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debt_payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debt payment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("debt payment %d not found", id)
	}
	return nil
}
