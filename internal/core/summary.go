package core

import "slices"

// CategoryAmount is an amount aggregated by category. Kind is set for
// transaction breakdowns, which group by (category, kind).
type CategoryAmount struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Kind       Kind   `json:"type,omitempty"`
	Total      Money  `json:"total"`
	Count      int    `json:"count"`
}

// MonthlySummary totals the transactions of one month.
type MonthlySummary struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Balance    Money            `json:"balance"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// MonthTotals is one entry of the annual month breakdown.
type MonthTotals struct {
	Month   int   `json:"month"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
}

// AnnualSummary totals one year. Months always has 12 entries, index i
// holding calendar month i+1.
type AnnualSummary struct {
	Year       int              `json:"year"`
	Income     Money            `json:"income"`
	Expense    Money            `json:"expense"`
	Balance    Money            `json:"balance"`
	Months     []MonthTotals    `json:"months"`
	ByCategory []CategoryAmount `json:"by_category"`
}

type categoryKey struct {
	id   int64
	kind Kind
}

type categoryFold struct {
	index map[categoryKey]int
	items []CategoryAmount
}

func newCategoryFold() *categoryFold {
	return &categoryFold{index: make(map[categoryKey]int), items: []CategoryAmount{}}
}

func (f *categoryFold) add(t Transaction) {
	k := categoryKey{id: t.CategoryID, kind: t.Kind}
	i, ok := f.index[k]
	if !ok {
		i = len(f.items)
		f.index[k] = i
		f.items = append(f.items, CategoryAmount{
			CategoryID: t.CategoryID,
			Name:       t.CategoryName,
			Color:      t.CategoryColor,
			Kind:       t.Kind,
		})
	}
	f.items[i].Total = f.items[i].Total.Add(t.Amount)
	f.items[i].Count++
}

func (f *categoryFold) result() []CategoryAmount {
	sortCategoryAmounts(f.items)
	return f.items
}

func inWindow(d, start, end Date) bool {
	return !d.Before(start.Time) && d.Before(end.Time)
}

// SummarizeMonth folds the transactions dated within year/month.
func SummarizeMonth(year, month int, txs []Transaction) MonthlySummary {
	start, end := MonthWindow(year, month)
	s := MonthlySummary{Year: year, Month: month}
	cats := newCategoryFold()
	for _, t := range txs {
		if !inWindow(t.Date, start, end) {
			continue
		}
		switch t.Kind {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
		cats.add(t)
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.ByCategory = cats.result()
	return s
}

// SummarizeYear folds the transactions dated within year, including the
// dense 12-month breakdown.
func SummarizeYear(year int, txs []Transaction) AnnualSummary {
	start, end := YearWindow(year)
	s := AnnualSummary{Year: year, Months: make([]MonthTotals, 12)}
	for i := range s.Months {
		s.Months[i] = MonthTotals{Month: i + 1}
	}
	cats := newCategoryFold()
	for _, t := range txs {
		if !inWindow(t.Date, start, end) {
			continue
		}
		m := &s.Months[t.Date.Month()-1]
		switch t.Kind {
		case Income:
			s.Income = s.Income.Add(t.Amount)
			m.Income = m.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
			m.Expense = m.Expense.Add(t.Amount)
		}
		cats.add(t)
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.ByCategory = cats.result()
	return s
}

// CalendarDay is every dated item of one day. Lists are never nil.
type CalendarDay struct {
	Date             Date              `json:"date"`
	TotalIncome      Money             `json:"total_income"`
	TotalExpense     Money             `json:"total_expense"`
	TotalSavings     Money             `json:"total_savings"`
	Income           []Transaction     `json:"income"`
	Expense          []Transaction     `json:"expense"`
	Savings          []SavingsMovement `json:"savings"`
	MonthlyForecasts []Forecast        `json:"monthly_forecasts"`
	AnnualForecasts  []Forecast        `json:"annual_forecasts"`
}

// Calendar is one month of calendar days, ordered by date. Only days with
// some activity are present.
type Calendar struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// BuildCalendar groups transactions, savings movements and forecasts (by
// reminder date) into days of the given month. Items outside the month are
// ignored.
func BuildCalendar(year, month int, txs []Transaction, movements []SavingsMovement, forecasts []Forecast) Calendar {
	start, end := MonthWindow(year, month)
	days := make(map[string]*CalendarDay)
	day := func(d Date) *CalendarDay {
		if cd, ok := days[d.String()]; ok {
			return cd
		}
		cd := &CalendarDay{
			Date:             d,
			Income:           []Transaction{},
			Expense:          []Transaction{},
			Savings:          []SavingsMovement{},
			MonthlyForecasts: []Forecast{},
			AnnualForecasts:  []Forecast{},
		}
		days[d.String()] = cd
		return cd
	}

	for _, t := range txs {
		if !inWindow(t.Date, start, end) {
			continue
		}
		cd := day(t.Date)
		if t.Kind == Income {
			cd.Income = append(cd.Income, t)
			cd.TotalIncome = cd.TotalIncome.Add(t.Amount)
		} else {
			cd.Expense = append(cd.Expense, t)
			cd.TotalExpense = cd.TotalExpense.Add(t.Amount)
		}
	}
	for _, m := range movements {
		if !inWindow(m.Date, start, end) {
			continue
		}
		cd := day(m.Date)
		cd.Savings = append(cd.Savings, m)
		if m.Kind == Deposit {
			cd.TotalSavings = cd.TotalSavings.Add(m.Amount)
		} else {
			cd.TotalSavings = cd.TotalSavings.Sub(m.Amount)
		}
	}
	for _, f := range forecasts {
		if !inWindow(f.ReminderDate, start, end) {
			continue
		}
		cd := day(f.ReminderDate)
		if f.Kind == MonthlyForecast {
			cd.MonthlyForecasts = append(cd.MonthlyForecasts, f)
		} else {
			cd.AnnualForecasts = append(cd.AnnualForecasts, f)
		}
	}

	c := Calendar{Year: year, Month: month, Days: make([]CalendarDay, 0, len(days))}
	for _, cd := range days {
		c.Days = append(c.Days, *cd)
	}
	slices.SortFunc(c.Days, func(a, b CalendarDay) int { return a.Date.Compare(b.Date.Time) })
	return c
}

// DayBalance is one day of the cumulative balance series.
type DayBalance struct {
	Date    Date  `json:"date"`
	Day     int   `json:"day"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// DailyBalance is the dense cumulative series of one month.
type DailyBalance struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Days  []DayBalance `json:"days"`
}

// BuildDailyBalance returns one entry per day of the month. Balance is the
// running sum of income minus expense, carried through days without
// transactions.
func BuildDailyBalance(year, month int, txs []Transaction) DailyBalance {
	n := DaysIn(year, month)
	out := DailyBalance{Year: year, Month: month, Days: make([]DayBalance, n)}
	for i := range out.Days {
		out.Days[i] = DayBalance{Date: NewDate(year, month, i+1), Day: i + 1}
	}
	start, end := MonthWindow(year, month)
	for _, t := range txs {
		if !inWindow(t.Date, start, end) {
			continue
		}
		d := &out.Days[t.Date.Day()-1]
		if t.Kind == Income {
			d.Income = d.Income.Add(t.Amount)
		} else {
			d.Expense = d.Expense.Add(t.Amount)
		}
	}
	var running Money
	for i := range out.Days {
		running = running.Add(out.Days[i].Income).Sub(out.Days[i].Expense)
		out.Days[i].Balance = running
	}
	return out
}
