package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// maxBudgetLookups bounds concurrent spend queries for one results call.
const maxBudgetLookups = 4

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx)
}

func (s *LedgerService) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

// CreateBudget stores the budget linked to categoryIDs. Unknown ids are
// ignored by the store.
func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error) {
	if b.Color == "" {
		b.Color = core.DefaultColor
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	created, err := s.store.CreateBudget(ctx, b, categoryIDs)
	if err != nil {
		return b, err
	}
	slog.InfoContext(ctx, "Budget created",
		"id", created.ID, "name", created.Name, "amount", created.Amount.String(), "categories", len(created.Categories))
	return created, nil
}

// UpdateBudget replaces the budget's attributes and its category set.
func (s *LedgerService) UpdateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error) {
	if b.Color == "" {
		b.Color = core.DefaultColor
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	return s.store.UpdateBudget(ctx, b, categoryIDs)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}

// BudgetResults computes every budget's utilization for the month. Spend
// lookups run concurrently; the output is ordered by budget name.
func (s *LedgerService) BudgetResults(ctx context.Context, year, month int) ([]core.BudgetResult, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	return s.budgetResults(ctx, budgets, year, month)
}

func (s *LedgerService) budgetResults(ctx context.Context, budgets []core.Budget, year, month int) ([]core.BudgetResult, error) {
	from, to := core.MonthWindow(year, month)
	results := make([]core.BudgetResult, len(budgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBudgetLookups)
	for i, b := range budgets {
		if len(b.Categories) == 0 {
			results[i] = core.NewBudgetResult(b, year, month, core.Money{})
			continue
		}
		g.Go(func() error {
			spent, err := s.store.SumExpenses(gctx, b.CategoryIDs(), from, to)
			if err != nil {
				return err
			}
			results[i] = core.NewBudgetResult(b, year, month, spent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	core.SortBudgetResults(results)
	return results, nil
}

// OverBudget returns the results of the budgets that include categoryID and
// whose utilization for the month exceeds 100%.
func (s *LedgerService) OverBudget(ctx context.Context, categoryID int64, year, month int) ([]core.BudgetResult, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	var matching []core.Budget
	for _, b := range budgets {
		if b.Includes(categoryID) {
			matching = append(matching, b)
		}
	}
	results, err := s.budgetResults(ctx, matching, year, month)
	if err != nil {
		return nil, err
	}
	over := results[:0]
	for _, r := range results {
		if r.Percentage > 100 {
			over = append(over, r)
		}
	}
	return over, nil
}
