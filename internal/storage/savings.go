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

// MovementFilter narrows ListSavingsMovements. Zero values mean no filter.
type MovementFilter struct {
	AccountID int64
	From      core.Date
	To        core.Date
}

const savingsAccountColumns = `id, name, initial_balance_cents, target_amount_cents, color, created_at`

func scanSavingsAccount(s interface{ Scan(...any) error }) (core.SavingsAccount, error) {
	var (
		a       core.SavingsAccount
		created string
	)
	err := s.Scan(&a.ID, &a.Name, &a.InitialBalance.Cents, &a.TargetAmount.Cents, &a.Color, &created)
	a.CreatedAt = parseTimestamp(created)
	return a, err
}

func (r *SQLiteRepository) ListSavingsAccounts(ctx context.Context) ([]core.SavingsAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+savingsAccountColumns+` FROM savings_accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list savings accounts: %w", err)
	}
	defer rows.Close()

	out := []core.SavingsAccount{}
	for rows.Next() {
		a, err := scanSavingsAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSavingsAccount(ctx context.Context, id int64) (core.SavingsAccount, error) {
	a, err := scanSavingsAccount(r.db.QueryRowContext(ctx,
		`SELECT `+savingsAccountColumns+` FROM savings_accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, core.NotFoundf("savings account %d not found", id)
	}
	if err != nil {
		return a, fmt.Errorf("get savings account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error) {
	created := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO savings_accounts
		(name, initial_balance_cents, target_amount_cents, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.InitialBalance.Cents, a.TargetAmount.Cents, a.Color, created)
	if err != nil {
		return a, duplicateName(err, "savings account", a.Name, "create")
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return a, fmt.Errorf("savings account id: %w", err)
	}
	a.CreatedAt = parseTimestamp(created)
	slog.DebugContext(ctx, "Savings account row inserted", "id", a.ID, "name", a.Name)
	return a, nil
}

func (r *SQLiteRepository) UpdateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE savings_accounts
		SET name = ?, initial_balance_cents = ?, target_amount_cents = ?, color = ? WHERE id = ?`,
		a.Name, a.InitialBalance.Cents, a.TargetAmount.Cents, a.Color, a.ID)
	if err != nil {
		return a, duplicateName(err, "savings account", a.Name, "update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return a, core.NotFoundf("savings account %d not found", a.ID)
	}
	return r.GetSavingsAccount(ctx, a.ID)
}

// DeleteSavingsAccount refuses to delete an account that still has
// movements.
func (r *SQLiteRepository) DeleteSavingsAccount(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "savings_accounts", id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("savings account %d not found", id)
		}
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM savings_movements WHERE account_id = ?`, id)
		if err != nil {
			return fmt.Errorf("count movements for account %d: %w", id, err)
		}
		if n > 0 {
			return core.Conflictf("savings account has %d movements; delete them first", n)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM savings_accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete savings account %d: %w", id, err)
		}
		return nil
	})
}

const movementColumns = `m.id, m.account_id, m.type, m.amount_cents, m.description, m.date, m.created_at,
	COALESCE(a.name, ''), COALESCE(a.color, '')`

func scanMovement(s interface{ Scan(...any) error }) (core.SavingsMovement, error) {
	var (
		m       core.SavingsMovement
		created string
	)
	err := s.Scan(&m.ID, &m.AccountID, &m.Kind, &m.Amount.Cents, &m.Description, &m.Date, &created,
		&m.AccountName, &m.AccountColor)
	m.CreatedAt = parseTimestamp(created)
	return m, err
}

// ListSavingsMovements returns movements newest first, ties broken by
// creation order descending.
func (r *SQLiteRepository) ListSavingsMovements(ctx context.Context, f MovementFilter) ([]core.SavingsMovement, error) {
	var (
		conds []string
		args  []any
	)
	if f.AccountID > 0 {
		conds = append(conds, "m.account_id = ?")
		args = append(args, f.AccountID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "m.date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "m.date < ?")
		args = append(args, f.To)
	}
	q := `SELECT ` + movementColumns + ` FROM savings_movements m
		LEFT JOIN savings_accounts a ON a.id = m.account_id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY m.date DESC, m.created_at DESC, m.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list savings movements: %w", err)
	}
	defer rows.Close()

	out := []core.SavingsMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateSavingsMovement records a movement; the account must exist.
func (r *SQLiteRepository) CreateSavingsMovement(ctx context.Context, m core.SavingsMovement) (core.SavingsMovement, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "savings_accounts", m.AccountID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("savings account %d not found", m.AccountID)
		}
		created := now()
		res, err := tx.ExecContext(ctx, `INSERT INTO savings_movements
			(account_id, type, amount_cents, description, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.AccountID, m.Kind, m.Amount.Cents, m.Description, m.Date, created)
		if err != nil {
			return fmt.Errorf("create savings movement: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("savings movement id: %w", err)
		}
		m.CreatedAt = parseTimestamp(created)
		return nil
	})
	if err != nil {
		return m, err
	}
	slog.DebugContext(ctx, "Savings movement row inserted",
		"id", m.ID, "account_id", m.AccountID, "type", m.Kind, "amount_cents", m.Amount.Cents)
	return m, nil
}

func (r *SQLiteRepository) DeleteSavingsMovement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings movement %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("savings movement %d not found", id)
	}
	return nil
}
