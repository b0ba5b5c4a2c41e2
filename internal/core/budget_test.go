package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUtilization(t *testing.T) {
	cases := []struct {
		name          string
		spent, amount int64
		want          int64
	}{
		{"over budget", 65000, 50000, 130},
		{"zero amount", 65000, 0, 0},
		{"nothing spent", 0, 50000, 0},
		{"rounds half up", 1010, 2000, 51},
		{"rounds up", 2, 3, 67},
		{"rounds down", 1, 3, 33},
		{"exact", 50000, 50000, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Utilization(NewMoney(tc.spent), NewMoney(tc.amount)))
		})
	}
}

func TestBudgetResultScenario(t *testing.T) {
	b := Budget{
		ID:         1,
		Name:       "Comida",
		Amount:     NewMoney(50000),
		Categories: []CategoryRef{{ID: 4, Name: "Food"}},
	}
	r := NewBudgetResult(b, 2025, 3, NewMoney(65000))
	assert.Equal(t, int64(65000), r.Spent.Cents)
	assert.Equal(t, int64(-15000), r.Remaining.Cents)
	assert.Equal(t, int64(130), r.Percentage)
	assert.True(t, b.Includes(4))
	assert.False(t, b.Includes(5))
}

func TestBudgetResultWithoutCategories(t *testing.T) {
	r := NewBudgetResult(Budget{Name: "Vacío", Amount: NewMoney(30000)}, 2025, 3, Money{})
	assert.Zero(t, r.Spent.Cents)
	assert.Equal(t, int64(30000), r.Remaining.Cents)
	assert.Zero(t, r.Percentage)
	assert.NotNil(t, r.Categories)
}

func TestSortBudgetResults(t *testing.T) {
	results := []BudgetResult{
		{Budget: Budget{ID: 3, Name: "Ocio"}},
		{Budget: Budget{ID: 1, Name: "Casa"}},
		{Budget: Budget{ID: 2, Name: "Máquinas"}},
	}
	SortBudgetResults(results)
	assert.Equal(t, "Casa", results[0].Name)
	assert.Equal(t, "Máquinas", results[1].Name)
	assert.Equal(t, "Ocio", results[2].Name)
}
