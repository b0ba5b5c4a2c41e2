package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
)

// SequencedTables are the tables whose auto-increment counters are reset
// after DeleteAllData. Categories keep theirs since defaults survive.
var SequencedTables = []string{
	"transactions",
	"forecasts",
	"savings_accounts",
	"savings_movements",
	"debts",
	"debt_payments",
	"budgets",
}

// DeleteResult reports how many rows each table lost.
type DeleteResult struct {
	Transactions     int64 `json:"transactions"`
	Forecasts        int64 `json:"forecasts"`
	Categories       int64 `json:"categories"`
	SavingsAccounts  int64 `json:"savings_accounts"`
	SavingsMovements int64 `json:"savings_movements"`
	Debts            int64 `json:"debts"`
	DebtPayments     int64 `json:"debt_payments"`
	Budgets          int64 `json:"budgets"`
}

// DataStats counts the rows of the main tables.
type DataStats struct {
	Transactions    int64 `json:"transactions"`
	Forecasts       int64 `json:"forecasts"`
	Categories      int64 `json:"categories"`
	SavingsAccounts int64 `json:"savings_accounts"`
	Debts           int64 `json:"debts"`
	Budgets         int64 `json:"budgets"`
}

// DeleteAllData removes every user record in one transaction, keeping the
// default categories. Dependent rows go first.
func (r *SQLiteRepository) DeleteAllData(ctx context.Context) (DeleteResult, error) {
	var res DeleteResult
	steps := []struct {
		query string
		args  []any
		dst   *int64
	}{
		{`DELETE FROM debt_payments`, nil, &res.DebtPayments},
		{`DELETE FROM debts`, nil, &res.Debts},
		{`DELETE FROM savings_movements`, nil, &res.SavingsMovements},
		{`DELETE FROM savings_accounts`, nil, &res.SavingsAccounts},
		{`DELETE FROM transactions`, nil, &res.Transactions},
		{`DELETE FROM forecasts`, nil, &res.Forecasts},
		{`DELETE FROM budget_categories`, nil, nil},
		{`DELETE FROM budgets`, nil, &res.Budgets},
		{`DELETE FROM categories WHERE name NOT IN (` + placeholders(len(DefaultCategoryNames)) + `)`,
			stringArgs(DefaultCategoryNames), &res.Categories},
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range steps {
			out, err := tx.ExecContext(ctx, s.query, s.args...)
			if err != nil {
				return fmt.Errorf("%s: %w", s.query, err)
			}
			if s.dst != nil {
				*s.dst, _ = out.RowsAffected()
			}
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete all data: %w", err)
	}

	slog.WarnContext(ctx, "All user data deleted",
		"transactions", res.Transactions,
		"forecasts", res.Forecasts,
		"savings_accounts", res.SavingsAccounts,
		"debts", res.Debts,
		"budgets", res.Budgets,
		"categories", res.Categories)
	return res, nil
}

// ResetSequence restarts the auto-increment counter of table so the next
// inserted row gets id 1 (or max(id)+1 if rows remain).
func (r *SQLiteRepository) ResetSequence(ctx context.Context, table string) error {
	if !slices.Contains(SequencedTables, table) {
		return fmt.Errorf("reset sequence: unknown table %q", table)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = ?`, table); err != nil {
		return fmt.Errorf("reset sequence for %s: %w", table, err)
	}
	return nil
}

func (r *SQLiteRepository) Stats(ctx context.Context) (DataStats, error) {
	var s DataStats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"transactions", &s.Transactions},
		{"forecasts", &s.Forecasts},
		{"categories", &s.Categories},
		{"savings_accounts", &s.SavingsAccounts},
		{"debts", &s.Debts},
		{"budgets", &s.Budgets},
	}
	for _, c := range counts {
		n, err := count(ctx, r.db, `SELECT COUNT(*) FROM `+c.table)
		if err != nil {
			return s, fmt.Errorf("count %s: %w", c.table, err)
		}
		*c.dst = n
	}
	return s, nil
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
