package core

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// BudgetResult is a budget's utilization for one month.
type BudgetResult struct {
	Budget
	Month      int   `json:"month"`
	Year       int   `json:"year"`
	Spent      Money `json:"spent"`
	Remaining  Money `json:"remaining"`
	Percentage int64 `json:"percentage"`
}

// Utilization returns round(spent/amount*100), half away from zero, or 0
// when amount is not positive. The result is not capped at 100.
func Utilization(spent, amount Money) int64 {
	if amount.Cents <= 0 {
		return 0
	}
	return decimal.NewFromInt(spent.Cents).
		Mul(hundred).
		DivRound(decimal.NewFromInt(amount.Cents), 8).
		Round(0).
		IntPart()
}

// NewBudgetResult derives remaining and percentage from what was spent.
func NewBudgetResult(b Budget, year, month int, spent Money) BudgetResult {
	if b.Categories == nil {
		b.Categories = []CategoryRef{}
	}
	return BudgetResult{
		Budget:     b,
		Month:      month,
		Year:       year,
		Spent:      spent,
		Remaining:  b.Amount.Sub(spent),
		Percentage: Utilization(spent, b.Amount),
	}
}

// CategoryIDs returns the ids of the budget's categories.
func (b Budget) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(b.Categories))
	for _, c := range b.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Includes reports whether the budget aggregates the given category.
func (b Budget) Includes(categoryID int64) bool {
	return slices.ContainsFunc(b.Categories, func(c CategoryRef) bool { return c.ID == categoryID })
}

// SortBudgetResults orders results by budget name.
func SortBudgetResults(results []BudgetResult) {
	slices.SortStableFunc(results, func(a, b BudgetResult) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
